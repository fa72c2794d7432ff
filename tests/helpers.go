package tests

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/vkuznets/taskboard/internal/model"
	"github.com/vkuznets/taskboard/internal/repo"
	"github.com/vkuznets/taskboard/internal/service"
)

// SetupTestDB starts a disposable postgres with the schema applied.
func SetupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	ctx := context.Background()

	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filename))
	migrationsPath := filepath.Join(projectRoot, "migrations")

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.WithInitScripts(filepath.Join(migrationsPath, "001_init.up.sql")),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	cleanup := func() {
		pool.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

func TruncateTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE list_items, tasks, notes, routines, idempotency_keys, audit_log CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

// NewBoardService wires a service over the pool without the audit
// recorder; audit is best-effort and orthogonal to these tests.
func NewBoardService(pool *pgxpool.Pool) *service.BoardService {
	return service.NewBoardService(repo.NewStore(pool), nil, zap.NewNop())
}

// AssertDense checks invariant I1: the non-archived tasks of a column
// occupy exactly positions 0..n-1.
func AssertDense(t *testing.T, pool *pgxpool.Pool, column model.Column) {
	t.Helper()

	rows, err := pool.Query(context.Background(), `
		SELECT position FROM tasks WHERE board_column = $1 AND archived = FALSE ORDER BY position
	`, column)
	if err != nil {
		t.Fatalf("Failed to read positions: %v", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			t.Fatal(err)
		}
		if p != i {
			t.Errorf("column %s: expected position %d, got %d", column, i, p)
		}
		i++
	}
}

// AssertItemsDense checks invariant I4 for one task's checklist.
func AssertItemsDense(t *testing.T, pool *pgxpool.Pool, taskID any) {
	t.Helper()

	rows, err := pool.Query(context.Background(), `
		SELECT position FROM list_items WHERE task_id = $1 ORDER BY position
	`, taskID)
	if err != nil {
		t.Fatalf("Failed to read item positions: %v", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			t.Fatal(err)
		}
		if p != i {
			t.Errorf("task %v: expected item position %d, got %d", taskID, i, p)
		}
		i++
	}
}
