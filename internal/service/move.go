package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/vkuznets/taskboard/internal/model"
	"github.com/vkuznets/taskboard/internal/repo"
)

// MoveTask moves a task within its column or across columns. A nil
// position, or one past the current end, appends; a negative one is
// rejected. Moving to the same column and position is a no-op. The
// gap shifts are the primary mechanism; both touched columns are
// renumbered afterwards as an idempotent backstop.
func (s *BoardService) MoveTask(ctx context.Context, id uuid.UUID, column model.Column, position *int) (model.Task, error) {
	if !column.Valid() {
		return model.Task{}, ErrValidation
	}
	if position != nil && *position < 0 {
		return model.Task{}, ErrInvalidTransition
	}

	var out model.Task
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		tasks := repo.NewTaskRepo(q)
		ledger := repo.NewLedger(q)

		t, err := s.lockTask(ctx, q, id, column)
		if err != nil {
			return err
		}
		if t.Archived {
			return ErrInvalidTransition
		}

		count, err := ledger.NextTaskPosition(ctx, column)
		if err != nil {
			return err
		}

		if t.Column == column {
			// Appending within the same column means the last index,
			// not one past it.
			target := count - 1
			if position != nil && *position < count {
				target = *position
			}
			if target == t.Position {
				out, err = s.withItems(ctx, q, t)
				return err
			}
			if target > t.Position {
				err = ledger.ShiftTasksDown(ctx, column, t.Position, target)
			} else {
				err = ledger.ShiftTasksUp(ctx, column, target, t.Position)
			}
			if err != nil {
				return err
			}
			if err := tasks.Relocate(ctx, id, column, target); err != nil {
				return err
			}
		} else {
			target := count
			if position != nil && *position < count {
				target = *position
			}
			if err := ledger.CloseTaskGap(ctx, t.Column, t.Position); err != nil {
				return err
			}
			if err := ledger.OpenTaskGap(ctx, column, target); err != nil {
				return err
			}
			if err := tasks.Relocate(ctx, id, column, target); err != nil {
				return err
			}
			if err := ledger.RenumberColumn(ctx, t.Column); err != nil {
				return err
			}
		}

		if err := ledger.RenumberColumn(ctx, column); err != nil {
			return err
		}

		moved, err := tasks.Get(ctx, id)
		if err != nil {
			return err
		}
		out, err = s.withItems(ctx, q, moved)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	s.record(ctx, "task.move", "task", id, map[string]any{
		"column":   out.Column,
		"position": out.Position,
	})
	return out, nil
}
