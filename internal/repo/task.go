package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vkuznets/taskboard/internal/model"
)

const taskColumns = `id, title, notes, kind, completed, archived, board_column, position,
	due_date, routine_id, created_at, updated_at, completed_at, archived_at`

type TaskRepo struct {
	db Querier
}

func NewTaskRepo(db Querier) *TaskRepo {
	return &TaskRepo{db: db}
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Notes, &t.Kind, &t.Completed, &t.Archived,
		&t.Column, &t.Position, &t.DueDate, &t.RoutineID,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &t.ArchivedAt,
	)
	return t, mapError(err)
}

// Create inserts a new card at the given position. Kind is always
// "card" on creation; it only ever changes through item mutations.
func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	return scanTask(r.db.QueryRow(ctx, `
		INSERT INTO tasks (title, notes, board_column, position, due_date, routine_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+taskColumns+`
	`, t.Title, t.Notes, t.Column, t.Position, t.DueDate, t.RoutineID))
}

func (r *TaskRepo) Get(ctx context.Context, id uuid.UUID) (model.Task, error) {
	return scanTask(r.db.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1
	`, id))
}

// GetForUpdate locks the task row for the rest of the transaction.
// This is what serializes the count-then-flip sequences on one task.
func (r *TaskRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (model.Task, error) {
	return scanTask(r.db.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE
	`, id))
}

func (r *TaskRepo) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE archived = $1 AND ($2::text IS NULL OR board_column = $2)
		ORDER BY board_column, position, created_at
	`, filter.Archived, filter.Column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ApplyPatch updates only the fields present in the patch. Setting
// completed through a patch keeps the first completion timestamp;
// clearing it drops the timestamp.
func (r *TaskRepo) ApplyPatch(ctx context.Context, id uuid.UUID, p model.TaskPatch) (model.Task, error) {
	return scanTask(r.db.QueryRow(ctx, `
		UPDATE tasks SET
			title      = COALESCE($2, title),
			notes      = COALESCE($3, notes),
			due_date   = COALESCE($4, due_date),
			routine_id = COALESCE($5, routine_id),
			completed  = COALESCE($6, completed),
			completed_at = CASE
				WHEN $6::boolean IS NULL THEN completed_at
				WHEN $6 THEN COALESCE(completed_at, now())
				ELSE NULL
			END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns+`
	`, id, p.Title, p.Notes, p.DueDate, p.RoutineID, p.Completed))
}

func (r *TaskRepo) SetKind(ctx context.Context, id uuid.UUID, kind model.Kind) error {
	_, err := r.db.Exec(ctx, `
		UPDATE tasks SET kind = $2, updated_at = now() WHERE id = $1
	`, id, kind)
	return err
}

func (r *TaskRepo) SetCompleted(ctx context.Context, id uuid.UUID) (model.Task, error) {
	return scanTask(r.db.QueryRow(ctx, `
		UPDATE tasks
		SET completed = TRUE, completed_at = COALESCE(completed_at, now()), updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns+`
	`, id))
}

func (r *TaskRepo) SetArchived(ctx context.Context, id uuid.UUID) (model.Task, error) {
	return scanTask(r.db.QueryRow(ctx, `
		UPDATE tasks
		SET archived = TRUE, archived_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns+`
	`, id))
}

// SetRestored brings a task back onto the board at the given position.
// Completed stays as it was.
func (r *TaskRepo) SetRestored(ctx context.Context, id uuid.UUID, position int) (model.Task, error) {
	return scanTask(r.db.QueryRow(ctx, `
		UPDATE tasks
		SET archived = FALSE, archived_at = NULL, position = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns+`
	`, id, position))
}

// Relocate writes a task's new column and position after the ledger
// has shifted the neighbors.
func (r *TaskRepo) Relocate(ctx context.Context, id uuid.UUID, column model.Column, position int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE tasks SET board_column = $2, position = $3, updated_at = now() WHERE id = $1
	`, id, column, position)
	return err
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, key string, resourceID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO idempotency_keys (key, resource_id) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`, key, resourceID)
	return err
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, key string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE key = $1
	`, key).Scan(&id)
	return id, mapError(err)
}

type Stats struct {
	ByColumn   map[string]int `json:"by_column"`
	Completed  int            `json:"completed"`
	Archived   int            `json:"archived"`
	Checklists int            `json:"checklists"`
	TotalTasks int            `json:"total_tasks"`
}

func (r *TaskRepo) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByColumn: make(map[string]int)}

	rows, err := r.db.Query(ctx, `
		SELECT board_column, COUNT(*) FROM tasks WHERE archived = FALSE GROUP BY board_column
	`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var column string
		var count int
		if err := rows.Scan(&column, &count); err != nil {
			return stats, err
		}
		stats.ByColumn[column] = count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE completed),
			COUNT(*) FILTER (WHERE archived),
			COUNT(*) FILTER (WHERE kind = 'checklist'),
			COUNT(*)
		FROM tasks
	`).Scan(&stats.Completed, &stats.Archived, &stats.Checklists, &stats.TotalTasks)
	return stats, err
}
