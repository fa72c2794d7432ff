package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/vkuznets/taskboard/internal/model"
	"github.com/vkuznets/taskboard/internal/repo"
)

func (s *BoardService) CreateNote(ctx context.Context, title, content string) (model.Note, error) {
	if err := validateTitle(title); err != nil {
		return model.Note{}, err
	}

	n, err := repo.NewNoteRepo(s.store.Pool()).Create(ctx, title, content)
	if err != nil {
		return model.Note{}, err
	}

	s.record(ctx, "note.create", "note", n.ID, n)
	return n, nil
}

func (s *BoardService) GetNote(ctx context.Context, id uuid.UUID) (model.Note, error) {
	return repo.NewNoteRepo(s.store.Pool()).Get(ctx, id)
}

func (s *BoardService) ListNotes(ctx context.Context, archived bool) ([]model.Note, error) {
	return repo.NewNoteRepo(s.store.Pool()).List(ctx, archived)
}

func (s *BoardService) UpdateNote(ctx context.Context, id uuid.UUID, patch model.NotePatch) (model.Note, error) {
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return model.Note{}, err
		}
	}

	n, err := repo.NewNoteRepo(s.store.Pool()).ApplyPatch(ctx, id, patch)
	if err != nil {
		return model.Note{}, err
	}

	s.record(ctx, "note.update", "note", id, patch)
	return n, nil
}
