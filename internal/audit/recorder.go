package audit

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Entry is one best-effort audit record. Entries are written after
// the business transaction commits; a failed write is logged and
// never propagated back to the caller.
type Entry struct {
	Actor    string
	Action   string
	Entity   string
	EntityID uuid.UUID
	Detail   any
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Recorder drains a bounded queue of audit entries with a small pool
// of workers. Enqueueing never blocks a request; on overflow the
// entry is dropped and counted in the log.
type Recorder struct {
	db      execer
	logger  *zap.Logger
	queue   chan Entry
	stop    chan struct{}
	wg      sync.WaitGroup
	workers int
}

func NewRecorder(db execer, logger *zap.Logger, workers, queueSize int) *Recorder {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}
	return &Recorder{
		db:      db,
		logger:  logger,
		queue:   make(chan Entry, queueSize),
		stop:    make(chan struct{}),
		workers: workers,
	}
}

func (r *Recorder) Start(ctx context.Context) {
	r.logger.Info("starting audit recorder", zap.Int("workers", r.workers))

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}
}

// Stop signals the workers, which drain whatever is still queued
// before exiting.
func (r *Recorder) Stop() {
	close(r.stop)
	r.wg.Wait()
	r.logger.Info("audit recorder stopped")
}

// Record enqueues an entry without blocking.
func (r *Recorder) Record(e Entry) {
	select {
	case r.queue <- e:
	default:
		r.logger.Warn("audit queue full, dropping entry",
			zap.String("action", e.Action),
			zap.String("entity", e.Entity),
		)
	}
}

func (r *Recorder) worker(ctx context.Context, id int) {
	defer r.wg.Done()

	for {
		select {
		case <-r.stop:
			r.drain()
			return
		case <-ctx.Done():
			return
		case e := <-r.queue:
			r.write(ctx, e)
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case e := <-r.queue:
			r.write(context.Background(), e)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, e Entry) {
	var detail []byte
	if e.Detail != nil {
		var err error
		if detail, err = json.Marshal(e.Detail); err != nil {
			r.logger.Error("failed to marshal audit detail", zap.Error(err))
			detail = nil
		}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_log (id, actor, action, entity, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), e.Actor, e.Action, e.Entity, e.EntityID, detail)
	if err != nil {
		r.logger.Error("failed to write audit entry",
			zap.String("action", e.Action),
			zap.String("entity", e.Entity),
			zap.Error(err),
		)
	}
}
