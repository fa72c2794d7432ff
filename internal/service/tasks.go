package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vkuznets/taskboard/internal/model"
	"github.com/vkuznets/taskboard/internal/repo"
)

// errReplay aborts a create whose idempotency key lost the race to a
// concurrent request; the insert is rolled back and the winner's task
// is returned instead.
var errReplay = errors.New("idempotency replay")

type CreateTaskInput struct {
	Title     string
	Column    model.Column
	Notes     string
	DueDate   *time.Time
	RoutineID *uuid.UUID
}

func (s *BoardService) CreateTask(ctx context.Context, in CreateTaskInput, idempKey string) (model.Task, error) {
	if err := validateTitle(in.Title); err != nil {
		return model.Task{}, err
	}
	if in.Column == "" {
		in.Column = model.ColumnToday
	}
	if !in.Column.Valid() {
		return model.Task{}, ErrValidation
	}

	if idempKey != "" {
		if existingID, err := repo.NewTaskRepo(s.store.Pool()).GetIdempotencyKey(ctx, idempKey); err == nil {
			return s.GetTask(ctx, existingID)
		}
	}

	var created model.Task
	var winnerID uuid.UUID
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		tasks := repo.NewTaskRepo(q)
		ledger := repo.NewLedger(q)

		if err := ledger.LockColumns(ctx, in.Column); err != nil {
			return err
		}

		if in.RoutineID != nil {
			ok, err := repo.NewRoutineRepo(q).Exists(ctx, *in.RoutineID)
			if err != nil {
				return err
			}
			if !ok {
				return repo.ErrNotFound
			}
		}

		pos, err := ledger.NextTaskPosition(ctx, in.Column)
		if err != nil {
			return err
		}

		created, err = tasks.Create(ctx, model.Task{
			Title:     strings.TrimSpace(in.Title),
			Notes:     in.Notes,
			Column:    in.Column,
			Position:  pos,
			DueDate:   in.DueDate,
			RoutineID: in.RoutineID,
		})
		if err != nil {
			return err
		}

		if idempKey != "" {
			if err := tasks.SaveIdempotencyKey(ctx, idempKey, created.ID); err != nil {
				return err
			}
			winnerID, err = tasks.GetIdempotencyKey(ctx, idempKey)
			if err != nil {
				return err
			}
			if winnerID != created.ID {
				return errReplay
			}
		}
		return nil
	})
	if errors.Is(err, errReplay) {
		return s.GetTask(ctx, winnerID)
	}
	if err != nil {
		return model.Task{}, err
	}

	s.record(ctx, "task.create", "task", created.ID, created)
	return created, nil
}

func (s *BoardService) GetTask(ctx context.Context, id uuid.UUID) (model.Task, error) {
	t, err := repo.NewTaskRepo(s.store.Pool()).Get(ctx, id)
	if err != nil {
		return t, err
	}
	return s.withItems(ctx, s.store.Pool(), t)
}

func (s *BoardService) ListTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	return repo.NewTaskRepo(s.store.Pool()).List(ctx, filter)
}

// Board returns all non-archived tasks grouped by column in position
// order, with checklist items inlined.
func (s *BoardService) Board(ctx context.Context) (model.Board, error) {
	var board model.Board

	tasks, err := repo.NewTaskRepo(s.store.Pool()).List(ctx, model.TaskFilter{})
	if err != nil {
		return board, err
	}

	checklistIDs := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		if t.Kind == model.KindChecklist {
			checklistIDs = append(checklistIDs, t.ID)
		}
	}
	grouped, err := repo.NewItemRepo(s.store.Pool()).ListByTasks(ctx, checklistIDs)
	if err != nil {
		return board, err
	}

	for _, t := range tasks {
		if items, ok := grouped[t.ID]; ok {
			t.Items = items
		}
		switch t.Column {
		case model.ColumnToday:
			board.Today = append(board.Today, t)
		case model.ColumnTomorrow:
			board.Tomorrow = append(board.Tomorrow, t)
		case model.ColumnThisWeek:
			board.ThisWeek = append(board.ThisWeek, t)
		case model.ColumnHorizon:
			board.Horizon = append(board.Horizon, t)
		}
	}
	return board, nil
}

func (s *BoardService) UpdateTask(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (model.Task, error) {
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return model.Task{}, err
		}
	}

	var out model.Task
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		tasks := repo.NewTaskRepo(q)

		if _, err := tasks.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if patch.RoutineID != nil {
			ok, err := repo.NewRoutineRepo(q).Exists(ctx, *patch.RoutineID)
			if err != nil {
				return err
			}
			if !ok {
				return repo.ErrNotFound
			}
		}

		t, err := tasks.ApplyPatch(ctx, id, patch)
		if err != nil {
			return err
		}
		out, err = s.withItems(ctx, q, t)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	s.record(ctx, "task.update", "task", id, patch)
	return out, nil
}

// DeleteTask is the administrative hard delete. Items go with the
// task via the cascade; the ledger gap closes like an archive.
func (s *BoardService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	var deleted model.Task
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		tasks := repo.NewTaskRepo(q)
		ledger := repo.NewLedger(q)

		t, err := s.lockTask(ctx, q, id)
		if err != nil {
			return err
		}
		deleted = t

		if !t.Archived {
			if err := ledger.CloseTaskGap(ctx, t.Column, t.Position); err != nil {
				return err
			}
		}
		if err := tasks.Delete(ctx, id); err != nil {
			return err
		}
		if !t.Archived {
			return ledger.RenumberColumn(ctx, t.Column)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.record(ctx, "task.delete", "task", id, deleted)
	return nil
}

func (s *BoardService) Stats(ctx context.Context) (repo.Stats, error) {
	return repo.NewTaskRepo(s.store.Pool()).Stats(ctx)
}
