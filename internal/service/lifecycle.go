package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/vkuznets/taskboard/internal/model"
	"github.com/vkuznets/taskboard/internal/repo"
)

// CompleteTask marks a task done. Completing an already-completed
// task is a no-op success; the first completion timestamp is kept.
func (s *BoardService) CompleteTask(ctx context.Context, id uuid.UUID) (model.Task, error) {
	var out model.Task
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		tasks := repo.NewTaskRepo(q)

		t, err := tasks.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !t.Completed {
			if t, err = tasks.SetCompleted(ctx, id); err != nil {
				return err
			}
		}
		out, err = s.withItems(ctx, q, t)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	s.record(ctx, "task.complete", "task", id, out)
	return out, nil
}

// ArchiveTask takes a task off the board and closes its slot in the
// column. Completion state is untouched; archiving is allowed from
// any completion state and is idempotent. List items stay attached
// to the task row.
func (s *BoardService) ArchiveTask(ctx context.Context, id uuid.UUID) (model.Task, error) {
	var out model.Task
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		tasks := repo.NewTaskRepo(q)
		ledger := repo.NewLedger(q)

		t, err := s.lockTask(ctx, q, id)
		if err != nil {
			return err
		}
		if t.Archived {
			out, err = s.withItems(ctx, q, t)
			return err
		}

		if err := ledger.CloseTaskGap(ctx, t.Column, t.Position); err != nil {
			return err
		}
		if t, err = tasks.SetArchived(ctx, id); err != nil {
			return err
		}
		if err := ledger.RenumberColumn(ctx, t.Column); err != nil {
			return err
		}
		out, err = s.withItems(ctx, q, t)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	s.record(ctx, "task.archive", "task", id, out)
	return out, nil
}

// RestoreTask puts an archived task back at the end of its column.
// Completed stays exactly as it was when the task was archived.
func (s *BoardService) RestoreTask(ctx context.Context, id uuid.UUID) (model.Task, error) {
	var out model.Task
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		tasks := repo.NewTaskRepo(q)
		ledger := repo.NewLedger(q)

		t, err := s.lockTask(ctx, q, id)
		if err != nil {
			return err
		}
		if !t.Archived {
			out, err = s.withItems(ctx, q, t)
			return err
		}

		pos, err := ledger.NextTaskPosition(ctx, t.Column)
		if err != nil {
			return err
		}
		if t, err = tasks.SetRestored(ctx, id, pos); err != nil {
			return err
		}
		out, err = s.withItems(ctx, q, t)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	s.record(ctx, "task.restore", "task", id, out)
	return out, nil
}

func (s *BoardService) ArchiveNote(ctx context.Context, id uuid.UUID) (model.Note, error) {
	var out model.Note
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		notes := repo.NewNoteRepo(q)

		n, err := notes.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if n.Archived {
			out = n
			return nil
		}
		out, err = notes.SetArchived(ctx, id)
		return err
	})
	if err != nil {
		return model.Note{}, err
	}

	s.record(ctx, "note.archive", "note", id, out)
	return out, nil
}

func (s *BoardService) RestoreNote(ctx context.Context, id uuid.UUID) (model.Note, error) {
	var out model.Note
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		notes := repo.NewNoteRepo(q)

		n, err := notes.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !n.Archived {
			out = n
			return nil
		}
		out, err = notes.SetRestored(ctx, id)
		return err
	})
	if err != nil {
		return model.Note{}, err
	}

	s.record(ctx, "note.restore", "note", id, out)
	return out, nil
}

// setRoutineStatus applies a guarded status transition. Archived
// routines reject status changes until restored.
func (s *BoardService) setRoutineStatus(ctx context.Context, id uuid.UUID, from []model.RoutineStatus, to model.RoutineStatus) (model.Routine, error) {
	var out model.Routine
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		routines := repo.NewRoutineRepo(q)

		rt, err := routines.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if rt.Archived {
			return ErrInvalidTransition
		}
		if rt.Status == to {
			out = rt
			return nil
		}
		allowed := false
		for _, st := range from {
			if rt.Status == st {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrInvalidTransition
		}
		out, err = routines.SetStatus(ctx, id, to)
		return err
	})
	if err != nil {
		return model.Routine{}, err
	}

	s.record(ctx, "routine.status", "routine", id, out)
	return out, nil
}

func (s *BoardService) PauseRoutine(ctx context.Context, id uuid.UUID) (model.Routine, error) {
	return s.setRoutineStatus(ctx, id, []model.RoutineStatus{model.RoutineActive}, model.RoutinePaused)
}

func (s *BoardService) ResumeRoutine(ctx context.Context, id uuid.UUID) (model.Routine, error) {
	return s.setRoutineStatus(ctx, id, []model.RoutineStatus{model.RoutinePaused}, model.RoutineActive)
}

func (s *BoardService) CompleteRoutine(ctx context.Context, id uuid.UUID) (model.Routine, error) {
	return s.setRoutineStatus(ctx, id, []model.RoutineStatus{model.RoutineActive, model.RoutinePaused}, model.RoutineCompleted)
}

func (s *BoardService) ArchiveRoutine(ctx context.Context, id uuid.UUID) (model.Routine, error) {
	var out model.Routine
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		routines := repo.NewRoutineRepo(q)

		rt, err := routines.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if rt.Archived {
			out = rt
			return nil
		}
		out, err = routines.SetArchived(ctx, id)
		return err
	})
	if err != nil {
		return model.Routine{}, err
	}

	s.record(ctx, "routine.archive", "routine", id, out)
	return out, nil
}

func (s *BoardService) RestoreRoutine(ctx context.Context, id uuid.UUID) (model.Routine, error) {
	var out model.Routine
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		routines := repo.NewRoutineRepo(q)

		rt, err := routines.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !rt.Archived {
			out = rt
			return nil
		}
		out, err = routines.SetRestored(ctx, id)
		return err
	})
	if err != nil {
		return model.Routine{}, err
	}

	s.record(ctx, "routine.restore", "routine", id, out)
	return out, nil
}
