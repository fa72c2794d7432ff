package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/vkuznets/taskboard/internal/model"
	"github.com/vkuznets/taskboard/internal/repo"
)

// AddItem appends a list item to a task. The first item flips the
// task from card to checklist inside the same transaction as the
// insert; the row lock on the task serializes concurrent adds.
func (s *BoardService) AddItem(ctx context.Context, taskID uuid.UUID, title string) (model.Task, error) {
	if err := validateTitle(title); err != nil {
		return model.Task{}, err
	}

	var out model.Task
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		tasks := repo.NewTaskRepo(q)
		items := repo.NewItemRepo(q)
		ledger := repo.NewLedger(q)

		t, err := tasks.GetForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		if t.Kind == model.KindCard {
			if err := tasks.SetKind(ctx, taskID, model.KindChecklist); err != nil {
				return err
			}
		}

		pos, err := ledger.NextItemPosition(ctx, taskID)
		if err != nil {
			return err
		}
		if _, err := items.Insert(ctx, taskID, strings.TrimSpace(title), pos); err != nil {
			return err
		}

		updated, err := tasks.Get(ctx, taskID)
		if err != nil {
			return err
		}
		out, err = s.withItems(ctx, q, updated)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	s.record(ctx, "task.item_add", "task", taskID, map[string]string{"title": title})
	return out, nil
}

// RemoveItem deletes a list item, closes the gap in the item ledger
// and flips the task back to a card when its last item goes. The
// re-count happens under the task row lock, in the same transaction
// as the delete.
func (s *BoardService) RemoveItem(ctx context.Context, taskID, itemID uuid.UUID) (model.Task, error) {
	var out model.Task
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		tasks := repo.NewTaskRepo(q)
		items := repo.NewItemRepo(q)
		ledger := repo.NewLedger(q)

		t, err := tasks.GetForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		it, err := items.Get(ctx, itemID)
		if err != nil {
			return err
		}
		if it.TaskID != taskID {
			return repo.ErrNotFound
		}

		if err := items.Delete(ctx, itemID); err != nil {
			return err
		}
		if err := ledger.CloseItemGap(ctx, taskID, it.Position); err != nil {
			return err
		}
		if err := ledger.RenumberItems(ctx, taskID); err != nil {
			return err
		}

		remaining, err := items.CountByTask(ctx, taskID)
		if err != nil {
			return err
		}
		if remaining == 0 && t.Kind == model.KindChecklist {
			if err := tasks.SetKind(ctx, taskID, model.KindCard); err != nil {
				return err
			}
		}

		updated, err := tasks.Get(ctx, taskID)
		if err != nil {
			return err
		}
		out, err = s.withItems(ctx, q, updated)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	s.record(ctx, "task.item_remove", "task", taskID, map[string]string{"item_id": itemID.String()})
	return out, nil
}

// UpdateItem renames or checks off a list item. Checking every item
// off leaves the task a checklist; only removal changes kind.
func (s *BoardService) UpdateItem(ctx context.Context, taskID, itemID uuid.UUID, patch model.ItemPatch) (model.Task, error) {
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return model.Task{}, err
		}
	}

	var out model.Task
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		tasks := repo.NewTaskRepo(q)
		items := repo.NewItemRepo(q)

		t, err := tasks.GetForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		it, err := items.Get(ctx, itemID)
		if err != nil {
			return err
		}
		if it.TaskID != taskID {
			return repo.ErrNotFound
		}

		if _, err := items.ApplyPatch(ctx, itemID, patch); err != nil {
			return err
		}
		out, err = s.withItems(ctx, q, t)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	s.record(ctx, "task.item_update", "task", taskID, patch)
	return out, nil
}
