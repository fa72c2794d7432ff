package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vkuznets/taskboard/internal/model"
)

const noteColumns = `id, title, content, archived, task_id, created_at, updated_at, archived_at`

type NoteRepo struct {
	db Querier
}

func NewNoteRepo(db Querier) *NoteRepo {
	return &NoteRepo{db: db}
}

func scanNote(row pgx.Row) (model.Note, error) {
	var n model.Note
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Archived, &n.TaskID, &n.CreatedAt, &n.UpdatedAt, &n.ArchivedAt)
	return n, mapError(err)
}

func (r *NoteRepo) Create(ctx context.Context, title, content string) (model.Note, error) {
	return scanNote(r.db.QueryRow(ctx, `
		INSERT INTO notes (title, content) VALUES ($1, $2)
		RETURNING `+noteColumns+`
	`, title, content))
}

func (r *NoteRepo) Get(ctx context.Context, id uuid.UUID) (model.Note, error) {
	return scanNote(r.db.QueryRow(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE id = $1
	`, id))
}

func (r *NoteRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (model.Note, error) {
	return scanNote(r.db.QueryRow(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE id = $1 FOR UPDATE
	`, id))
}

func (r *NoteRepo) List(ctx context.Context, archived bool) ([]model.Note, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE archived = $1 ORDER BY created_at DESC
	`, archived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *NoteRepo) ApplyPatch(ctx context.Context, id uuid.UUID, p model.NotePatch) (model.Note, error) {
	return scanNote(r.db.QueryRow(ctx, `
		UPDATE notes SET
			title      = COALESCE($2, title),
			content    = COALESCE($3, content),
			updated_at = now()
		WHERE id = $1
		RETURNING `+noteColumns+`
	`, id, p.Title, p.Content))
}

func (r *NoteRepo) SetArchived(ctx context.Context, id uuid.UUID) (model.Note, error) {
	return scanNote(r.db.QueryRow(ctx, `
		UPDATE notes SET archived = TRUE, archived_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+noteColumns+`
	`, id))
}

func (r *NoteRepo) SetRestored(ctx context.Context, id uuid.UUID) (model.Note, error) {
	return scanNote(r.db.QueryRow(ctx, `
		UPDATE notes SET archived = FALSE, archived_at = NULL, updated_at = now()
		WHERE id = $1
		RETURNING `+noteColumns+`
	`, id))
}

// SetConverted archives the note and records the task it became.
// Runs in the same transaction that created the task.
func (r *NoteRepo) SetConverted(ctx context.Context, id, taskID uuid.UUID) (model.Note, error) {
	return scanNote(r.db.QueryRow(ctx, `
		UPDATE notes SET archived = TRUE, archived_at = now(), task_id = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+noteColumns+`
	`, id, taskID))
}
