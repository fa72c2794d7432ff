package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vkuznets/taskboard/internal/audit"
	"github.com/vkuznets/taskboard/internal/model"
	"github.com/vkuznets/taskboard/internal/repo"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidTransition = errors.New("invalid transition")
)

const maxTitleLen = 500

// BoardService is the board-state engine. Every mutating operation
// runs inside exactly one store transaction; positions and kinds are
// only ever read and written inside the transaction that owns them.
type BoardService struct {
	store  *repo.Store
	audit  *audit.Recorder
	logger *zap.Logger
}

func NewBoardService(store *repo.Store, recorder *audit.Recorder, logger *zap.Logger) *BoardService {
	return &BoardService{
		store:  store,
		audit:  recorder,
		logger: logger,
	}
}

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLen {
		return ErrValidation
	}
	return nil
}

// lockTask advisory-locks the task's column (plus any extra columns,
// always in sorted order) and then locks the task row itself. Column
// locks are taken before row locks everywhere, so movers and archivers
// cannot deadlock against each other. The rare case of the task
// changing columns between the unlocked read and the row lock is
// surfaced as a conflict.
func (s *BoardService) lockTask(ctx context.Context, q repo.Querier, id uuid.UUID, extra ...model.Column) (model.Task, error) {
	tasks := repo.NewTaskRepo(q)
	ledger := repo.NewLedger(q)

	t, err := tasks.Get(ctx, id)
	if err != nil {
		return t, err
	}

	columns := append([]model.Column{t.Column}, extra...)
	if err := ledger.LockColumns(ctx, columns...); err != nil {
		return t, err
	}

	locked, err := tasks.GetForUpdate(ctx, id)
	if err != nil {
		return locked, err
	}
	if locked.Column != t.Column {
		return locked, repo.ErrConflict
	}
	return locked, nil
}

// withItems inlines a checklist's items into the task. Cards never
// carry items.
func (s *BoardService) withItems(ctx context.Context, q repo.Querier, t model.Task) (model.Task, error) {
	if t.Kind != model.KindChecklist {
		t.Items = nil
		return t, nil
	}
	items, err := repo.NewItemRepo(q).ListByTask(ctx, t.ID)
	if err != nil {
		return t, err
	}
	t.Items = items
	return t, nil
}

func (s *BoardService) record(ctx context.Context, action, entity string, id uuid.UUID, detail any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(audit.Entry{
		Actor:    audit.ActorFrom(ctx),
		Action:   action,
		Entity:   entity,
		EntityID: id,
		Detail:   detail,
	})
}
