package repo

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkuznets/taskboard/internal/model"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Fatal(err)
	}

	pool.Exec(context.Background(), "TRUNCATE list_items, tasks, notes, routines, idempotency_keys, audit_log CASCADE")

	return pool
}

func seedColumn(t *testing.T, pool *pgxpool.Pool, column model.Column, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		_, err := pool.Exec(context.Background(), `
			INSERT INTO tasks (title, board_column, position) VALUES ($1, $2, $3)
		`, fmt.Sprintf("Task %d", i), column, i)
		require.NoError(t, err)
	}
}

func columnPositions(t *testing.T, pool *pgxpool.Pool, column model.Column) []int {
	t.Helper()
	rows, err := pool.Query(context.Background(), `
		SELECT position FROM tasks WHERE board_column = $1 AND archived = FALSE ORDER BY position
	`, column)
	require.NoError(t, err)
	defer rows.Close()

	positions := make([]int, 0)
	for rows.Next() {
		var p int
		require.NoError(t, rows.Scan(&p))
		positions = append(positions, p)
	}
	return positions
}

func TestLedger_NextTaskPosition(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := NewLedger(pool)
	ctx := context.Background()

	pos, err := ledger.NextTaskPosition(ctx, model.ColumnToday)
	require.NoError(t, err)
	assert.Equal(t, 0, pos, "empty column starts at 0")

	seedColumn(t, pool, model.ColumnToday, 3)

	pos, err = ledger.NextTaskPosition(ctx, model.ColumnToday)
	require.NoError(t, err)
	assert.Equal(t, 3, pos)

	// Other columns are independent partitions.
	pos, err = ledger.NextTaskPosition(ctx, model.ColumnTomorrow)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
}

func TestLedger_OpenAndCloseTaskGap(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := NewLedger(pool)
	ctx := context.Background()
	seedColumn(t, pool, model.ColumnToday, 4)

	require.NoError(t, ledger.OpenTaskGap(ctx, model.ColumnToday, 1))
	assert.Equal(t, []int{0, 2, 3, 4}, columnPositions(t, pool, model.ColumnToday))

	require.NoError(t, ledger.CloseTaskGap(ctx, model.ColumnToday, 0))
	assert.Equal(t, []int{0, 1, 2, 3}, columnPositions(t, pool, model.ColumnToday))
}

func TestLedger_RenumberColumn(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := NewLedger(pool)
	ctx := context.Background()

	// Seed with deliberate gaps and verify renumber restores density.
	for i, pos := range []int{0, 3, 7, 8} {
		_, err := pool.Exec(ctx, `
			INSERT INTO tasks (title, board_column, position) VALUES ($1, 'today', $2)
		`, fmt.Sprintf("Task %d", i), pos)
		require.NoError(t, err)
	}

	require.NoError(t, ledger.RenumberColumn(ctx, model.ColumnToday))
	assert.Equal(t, []int{0, 1, 2, 3}, columnPositions(t, pool, model.ColumnToday))

	// Idempotent: a second run changes nothing.
	require.NoError(t, ledger.RenumberColumn(ctx, model.ColumnToday))
	assert.Equal(t, []int{0, 1, 2, 3}, columnPositions(t, pool, model.ColumnToday))
}

func TestLedger_RenumberIgnoresArchived(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := NewLedger(pool)
	ctx := context.Background()
	seedColumn(t, pool, model.ColumnToday, 3)

	_, err := pool.Exec(ctx, `
		UPDATE tasks SET archived = TRUE, archived_at = now() WHERE board_column = 'today' AND position = 1
	`)
	require.NoError(t, err)

	require.NoError(t, ledger.RenumberColumn(ctx, model.ColumnToday))
	assert.Equal(t, []int{0, 1}, columnPositions(t, pool, model.ColumnToday))
}

func TestLedger_ItemPartition(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := NewLedger(pool)
	tasks := NewTaskRepo(pool)
	items := NewItemRepo(pool)
	ctx := context.Background()

	task, err := tasks.Create(ctx, model.Task{Title: "Groceries", Column: model.ColumnToday, Position: 0})
	require.NoError(t, err)

	for i, title := range []string{"Milk", "Eggs", "Bread"} {
		_, err := items.Insert(ctx, task.ID, title, i)
		require.NoError(t, err)
	}

	pos, err := ledger.NextItemPosition(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, pos)

	list, err := items.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)

	require.NoError(t, items.Delete(ctx, list[0].ID))
	require.NoError(t, ledger.CloseItemGap(ctx, task.ID, list[0].Position))
	require.NoError(t, ledger.RenumberItems(ctx, task.ID))

	list, err = items.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 0, list[0].Position)
	assert.Equal(t, 1, list[1].Position)
	assert.Equal(t, "Eggs", list[0].Title)
	assert.Equal(t, "Bread", list[1].Title)
}
