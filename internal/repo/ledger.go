package repo

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/vkuznets/taskboard/internal/model"
)

// Ledger maintains dense zero-based positions for the two kinds of
// partition on the board: tasks within a (column, archived=false)
// lane, and list items within a task.
type Ledger struct {
	db Querier
}

func NewLedger(db Querier) *Ledger {
	return &Ledger{db: db}
}

// LockColumns takes transaction-scoped advisory locks on the given
// columns, in sorted order so two movers can never deadlock. Every
// transaction that reads a position and writes based on it must lock
// the partition first.
func (l *Ledger) LockColumns(ctx context.Context, columns ...model.Column) error {
	keys := make([]string, 0, len(columns))
	for _, c := range columns {
		keys = append(keys, "tasks:"+string(c))
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, err := l.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return err
		}
	}
	return nil
}

// NextTaskPosition returns the next free slot in a column, i.e. the
// current count of non-archived tasks there.
func (l *Ledger) NextTaskPosition(ctx context.Context, column model.Column) (int, error) {
	var n int
	err := l.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM tasks WHERE board_column = $1 AND archived = FALSE
	`, column).Scan(&n)
	return n, err
}

// OpenTaskGap shifts every task at or after pos up by one, making
// room for an insert at pos.
func (l *Ledger) OpenTaskGap(ctx context.Context, column model.Column, pos int) error {
	_, err := l.db.Exec(ctx, `
		UPDATE tasks SET position = position + 1, updated_at = now()
		WHERE board_column = $1 AND archived = FALSE AND position >= $2
	`, column, pos)
	return err
}

// CloseTaskGap shifts every task after pos down by one, closing the
// hole left by a removal.
func (l *Ledger) CloseTaskGap(ctx context.Context, column model.Column, pos int) error {
	_, err := l.db.Exec(ctx, `
		UPDATE tasks SET position = position - 1, updated_at = now()
		WHERE board_column = $1 AND archived = FALSE AND position > $2
	`, column, pos)
	return err
}

// ShiftTasksUp moves positions in [from, to) up by one. Used for a
// same-column move toward the front.
func (l *Ledger) ShiftTasksUp(ctx context.Context, column model.Column, from, to int) error {
	_, err := l.db.Exec(ctx, `
		UPDATE tasks SET position = position + 1, updated_at = now()
		WHERE board_column = $1 AND archived = FALSE AND position >= $2 AND position < $3
	`, column, from, to)
	return err
}

// ShiftTasksDown moves positions in (from, to] down by one. Used for
// a same-column move toward the back.
func (l *Ledger) ShiftTasksDown(ctx context.Context, column model.Column, from, to int) error {
	_, err := l.db.Exec(ctx, `
		UPDATE tasks SET position = position - 1, updated_at = now()
		WHERE board_column = $1 AND archived = FALSE AND position > $2 AND position <= $3
	`, column, from, to)
	return err
}

// RenumberColumn rewrites a column's positions to 0..n-1, ordered by
// current position with creation order breaking ties. Idempotent; a
// no-op on an already-dense column. Runs after every cross-partition
// move as a backstop.
func (l *Ledger) RenumberColumn(ctx context.Context, column model.Column) error {
	_, err := l.db.Exec(ctx, `
		UPDATE tasks AS t
		SET position = ranked.rn - 1, updated_at = now()
		FROM (
			SELECT id, row_number() OVER (ORDER BY position, created_at) AS rn
			FROM tasks
			WHERE board_column = $1 AND archived = FALSE
		) AS ranked
		WHERE t.id = ranked.id AND t.position <> ranked.rn - 1
	`, column)
	return err
}

// NextItemPosition returns the next free slot in a task's checklist.
func (l *Ledger) NextItemPosition(ctx context.Context, taskID uuid.UUID) (int, error) {
	var n int
	err := l.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM list_items WHERE task_id = $1
	`, taskID).Scan(&n)
	return n, err
}

// CloseItemGap shifts every item after pos down by one.
func (l *Ledger) CloseItemGap(ctx context.Context, taskID uuid.UUID, pos int) error {
	_, err := l.db.Exec(ctx, `
		UPDATE list_items SET position = position - 1, updated_at = now()
		WHERE task_id = $1 AND position > $2
	`, taskID, pos)
	return err
}

// RenumberItems is the item-partition counterpart of RenumberColumn.
func (l *Ledger) RenumberItems(ctx context.Context, taskID uuid.UUID) error {
	_, err := l.db.Exec(ctx, `
		UPDATE list_items AS i
		SET position = ranked.rn - 1, updated_at = now()
		FROM (
			SELECT id, row_number() OVER (ORDER BY position, created_at) AS rn
			FROM list_items
			WHERE task_id = $1
		) AS ranked
		WHERE i.id = ranked.id AND i.position <> ranked.rn - 1
	`, taskID)
	return err
}
