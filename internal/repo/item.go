package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vkuznets/taskboard/internal/model"
)

const itemColumns = `id, task_id, title, completed, position, created_at, updated_at`

type ItemRepo struct {
	db Querier
}

func NewItemRepo(db Querier) *ItemRepo {
	return &ItemRepo{db: db}
}

func scanItem(row pgx.Row) (model.ListItem, error) {
	var it model.ListItem
	err := row.Scan(&it.ID, &it.TaskID, &it.Title, &it.Completed, &it.Position, &it.CreatedAt, &it.UpdatedAt)
	return it, mapError(err)
}

func (r *ItemRepo) Insert(ctx context.Context, taskID uuid.UUID, title string, position int) (model.ListItem, error) {
	return scanItem(r.db.QueryRow(ctx, `
		INSERT INTO list_items (task_id, title, position)
		VALUES ($1, $2, $3)
		RETURNING `+itemColumns+`
	`, taskID, title, position))
}

func (r *ItemRepo) Get(ctx context.Context, id uuid.UUID) (model.ListItem, error) {
	return scanItem(r.db.QueryRow(ctx, `
		SELECT `+itemColumns+` FROM list_items WHERE id = $1
	`, id))
}

func (r *ItemRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.ListItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+itemColumns+` FROM list_items WHERE task_id = $1 ORDER BY position, created_at
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ListItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListByTasks loads the items of many tasks in one query, grouped by
// owning task. Used to inline checklists into the board view.
func (r *ItemRepo) ListByTasks(ctx context.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]model.ListItem, error) {
	grouped := make(map[uuid.UUID][]model.ListItem)
	if len(taskIDs) == 0 {
		return grouped, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+itemColumns+` FROM list_items WHERE task_id = ANY($1) ORDER BY task_id, position, created_at
	`, taskIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		grouped[it.TaskID] = append(grouped[it.TaskID], it)
	}
	return grouped, rows.Err()
}

func (r *ItemRepo) ApplyPatch(ctx context.Context, id uuid.UUID, p model.ItemPatch) (model.ListItem, error) {
	return scanItem(r.db.QueryRow(ctx, `
		UPDATE list_items SET
			title      = COALESCE($2, title),
			completed  = COALESCE($3, completed),
			updated_at = now()
		WHERE id = $1
		RETURNING `+itemColumns+`
	`, id, p.Title, p.Completed))
}

func (r *ItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM list_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ItemRepo) CountByTask(ctx context.Context, taskID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM list_items WHERE task_id = $1`, taskID).Scan(&n)
	return n, err
}
