package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/vkuznets/taskboard/internal/model"
	"github.com/vkuznets/taskboard/internal/repo"
)

// ConvertNote turns a note into a new task as one atomic unit: the
// task is created from the note's title and content, and the note is
// archived with a back-reference to the task. Either both happen or
// neither does. Converting an archived or already-converted note is
// rejected; the note itself is never deleted.
func (s *BoardService) ConvertNote(ctx context.Context, noteID uuid.UUID, ov model.ConvertOverrides) (model.Task, error) {
	column := ov.Column
	if column == "" {
		column = model.ColumnToday
	}
	if !column.Valid() {
		return model.Task{}, ErrValidation
	}

	var created model.Task
	err := s.store.InTx(ctx, func(q repo.Querier) error {
		notes := repo.NewNoteRepo(q)
		tasks := repo.NewTaskRepo(q)
		ledger := repo.NewLedger(q)

		n, err := notes.GetForUpdate(ctx, noteID)
		if err != nil {
			return err
		}
		if n.Archived || n.TaskID != nil {
			return ErrInvalidTransition
		}

		if err := ledger.LockColumns(ctx, column); err != nil {
			return err
		}
		if ov.RoutineID != nil {
			ok, err := repo.NewRoutineRepo(q).Exists(ctx, *ov.RoutineID)
			if err != nil {
				return err
			}
			if !ok {
				return repo.ErrNotFound
			}
		}

		pos, err := ledger.NextTaskPosition(ctx, column)
		if err != nil {
			return err
		}
		created, err = tasks.Create(ctx, model.Task{
			Title:     n.Title,
			Notes:     n.Content,
			Column:    column,
			Position:  pos,
			DueDate:   ov.DueDate,
			RoutineID: ov.RoutineID,
		})
		if err != nil {
			return err
		}

		_, err = notes.SetConverted(ctx, noteID, created.ID)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	s.record(ctx, "note.convert", "note", noteID, map[string]string{"task_id": created.ID.String()})
	return created, nil
}
