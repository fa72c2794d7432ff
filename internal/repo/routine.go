package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vkuznets/taskboard/internal/model"
)

const routineColumns = `id, title, notes, status, archived, created_at, updated_at, archived_at`

type RoutineRepo struct {
	db Querier
}

func NewRoutineRepo(db Querier) *RoutineRepo {
	return &RoutineRepo{db: db}
}

func scanRoutine(row pgx.Row) (model.Routine, error) {
	var rt model.Routine
	err := row.Scan(&rt.ID, &rt.Title, &rt.Notes, &rt.Status, &rt.Archived, &rt.CreatedAt, &rt.UpdatedAt, &rt.ArchivedAt)
	return rt, mapError(err)
}

func (r *RoutineRepo) Create(ctx context.Context, title, notes string) (model.Routine, error) {
	return scanRoutine(r.db.QueryRow(ctx, `
		INSERT INTO routines (title, notes) VALUES ($1, $2)
		RETURNING `+routineColumns+`
	`, title, notes))
}

func (r *RoutineRepo) Get(ctx context.Context, id uuid.UUID) (model.Routine, error) {
	return scanRoutine(r.db.QueryRow(ctx, `
		SELECT `+routineColumns+` FROM routines WHERE id = $1
	`, id))
}

func (r *RoutineRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (model.Routine, error) {
	return scanRoutine(r.db.QueryRow(ctx, `
		SELECT `+routineColumns+` FROM routines WHERE id = $1 FOR UPDATE
	`, id))
}

func (r *RoutineRepo) List(ctx context.Context, archived bool) ([]model.Routine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+routineColumns+` FROM routines WHERE archived = $1 ORDER BY created_at DESC
	`, archived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routines := make([]model.Routine, 0)
	for rows.Next() {
		rt, err := scanRoutine(rows)
		if err != nil {
			return nil, err
		}
		routines = append(routines, rt)
	}
	return routines, rows.Err()
}

func (r *RoutineRepo) ApplyPatch(ctx context.Context, id uuid.UUID, p model.RoutinePatch) (model.Routine, error) {
	return scanRoutine(r.db.QueryRow(ctx, `
		UPDATE routines SET
			title      = COALESCE($2, title),
			notes      = COALESCE($3, notes),
			updated_at = now()
		WHERE id = $1
		RETURNING `+routineColumns+`
	`, id, p.Title, p.Notes))
}

func (r *RoutineRepo) SetStatus(ctx context.Context, id uuid.UUID, status model.RoutineStatus) (model.Routine, error) {
	return scanRoutine(r.db.QueryRow(ctx, `
		UPDATE routines SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+routineColumns+`
	`, id, status))
}

func (r *RoutineRepo) SetArchived(ctx context.Context, id uuid.UUID) (model.Routine, error) {
	return scanRoutine(r.db.QueryRow(ctx, `
		UPDATE routines SET archived = TRUE, archived_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+routineColumns+`
	`, id))
}

func (r *RoutineRepo) SetRestored(ctx context.Context, id uuid.UUID) (model.Routine, error) {
	return scanRoutine(r.db.QueryRow(ctx, `
		UPDATE routines SET archived = FALSE, archived_at = NULL, updated_at = now()
		WHERE id = $1
		RETURNING `+routineColumns+`
	`, id))
}

func (r *RoutineRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var found bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM routines WHERE id = $1)`, id).Scan(&found)
	return found, err
}
