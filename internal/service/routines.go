package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/vkuznets/taskboard/internal/model"
	"github.com/vkuznets/taskboard/internal/repo"
)

func (s *BoardService) CreateRoutine(ctx context.Context, title, notes string) (model.Routine, error) {
	if err := validateTitle(title); err != nil {
		return model.Routine{}, err
	}

	rt, err := repo.NewRoutineRepo(s.store.Pool()).Create(ctx, title, notes)
	if err != nil {
		return model.Routine{}, err
	}

	s.record(ctx, "routine.create", "routine", rt.ID, rt)
	return rt, nil
}

func (s *BoardService) GetRoutine(ctx context.Context, id uuid.UUID) (model.Routine, error) {
	return repo.NewRoutineRepo(s.store.Pool()).Get(ctx, id)
}

func (s *BoardService) ListRoutines(ctx context.Context, archived bool) ([]model.Routine, error) {
	return repo.NewRoutineRepo(s.store.Pool()).List(ctx, archived)
}

func (s *BoardService) UpdateRoutine(ctx context.Context, id uuid.UUID, patch model.RoutinePatch) (model.Routine, error) {
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return model.Routine{}, err
		}
	}

	rt, err := repo.NewRoutineRepo(s.store.Pool()).ApplyPatch(ctx, id, patch)
	if err != nil {
		return model.Routine{}, err
	}

	s.record(ctx, "routine.update", "routine", id, patch)
	return rt, nil
}
