package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkuznets/taskboard/internal/model"
	"github.com/vkuznets/taskboard/internal/repo"
	"github.com/vkuznets/taskboard/internal/service"
)

// Scenario: a card becomes a checklist with its first item, stays a
// checklist while any item remains, and reverts to a card when the
// last item goes.
func TestTypeInference_ChecklistLifecycle(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Groceries", Column: model.ColumnToday}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, task.Position, "first task in an empty column sits at 0")
	assert.Equal(t, model.KindCard, task.Kind)

	task, err = svc.AddItem(ctx, task.ID, "Milk")
	require.NoError(t, err)
	assert.Equal(t, model.KindChecklist, task.Kind, "first item flips card to checklist")
	require.Len(t, task.Items, 1)
	assert.Equal(t, 0, task.Items[0].Position)

	task, err = svc.AddItem(ctx, task.ID, "Eggs")
	require.NoError(t, err)
	assert.Equal(t, model.KindChecklist, task.Kind)
	require.Len(t, task.Items, 2)
	assert.Equal(t, 1, task.Items[1].Position)

	milk := task.Items[0]
	task, err = svc.RemoveItem(ctx, task.ID, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.KindChecklist, task.Kind, "one item left keeps it a checklist")
	require.Len(t, task.Items, 1)
	assert.Equal(t, "Eggs", task.Items[0].Title)
	assert.Equal(t, 0, task.Items[0].Position, "survivor renumbered to 0")

	task, err = svc.RemoveItem(ctx, task.ID, task.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.KindCard, task.Kind, "last item removed flips back to card")
	assert.Empty(t, task.Items)
}

func TestTypeInference_CheckingOffIsNotRemoval(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Chores", Column: model.ColumnToday}, "")
	require.NoError(t, err)
	task, err = svc.AddItem(ctx, task.ID, "Dishes")
	require.NoError(t, err)

	done := true
	task, err = svc.UpdateItem(ctx, task.ID, task.Items[0].ID, model.ItemPatch{Completed: &done})
	require.NoError(t, err)
	assert.Equal(t, model.KindChecklist, task.Kind, "all items checked is still a checklist")
	require.Len(t, task.Items, 1)
	assert.True(t, task.Items[0].Completed)
}

// Scenario: moving the head of "today" to the head of "tomorrow"
// renumbers both columns.
func TestMove_AcrossColumns(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	today := make([]model.Task, 3)
	for i := range today {
		task, err := svc.CreateTask(ctx, service.CreateTaskInput{
			Title:  fmt.Sprintf("Today %d", i),
			Column: model.ColumnToday,
		}, "")
		require.NoError(t, err)
		require.Equal(t, i, task.Position)
		today[i] = task
	}
	existing, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Tomorrow 0", Column: model.ColumnTomorrow}, "")
	require.NoError(t, err)

	target := 0
	moved, err := svc.MoveTask(ctx, today[0].ID, model.ColumnTomorrow, &target)
	require.NoError(t, err)
	assert.Equal(t, model.ColumnTomorrow, moved.Column)
	assert.Equal(t, 0, moved.Position)

	shifted, err := svc.GetTask(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, shifted.Position, "pre-existing tomorrow task shifted down")

	second, err := svc.GetTask(ctx, today[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Position, "today closed the gap")

	AssertDense(t, pool, model.ColumnToday)
	AssertDense(t, pool, model.ColumnTomorrow)
}

func TestMove_WithinColumn(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	ids := make([]model.Task, 4)
	for i := range ids {
		task, err := svc.CreateTask(ctx, service.CreateTaskInput{
			Title:  fmt.Sprintf("Task %d", i),
			Column: model.ColumnToday,
		}, "")
		require.NoError(t, err)
		ids[i] = task
	}

	// 0,1,2,3 -> move 0 to 2 => 1,2,0,3
	target := 2
	moved, err := svc.MoveTask(ctx, ids[0].ID, model.ColumnToday, &target)
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Position)

	first, err := svc.GetTask(ctx, ids[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Position)

	AssertDense(t, pool, model.ColumnToday)

	// Moving back to the front.
	target = 0
	moved, err = svc.MoveTask(ctx, ids[0].ID, model.ColumnToday, &target)
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)
	AssertDense(t, pool, model.ColumnToday)
}

func TestMove_EdgeCases(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	a, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "A", Column: model.ColumnToday}, "")
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, service.CreateTaskInput{Title: "B", Column: model.ColumnToday}, "")
	require.NoError(t, err)

	t.Run("same spot is a no-op", func(t *testing.T) {
		pos := 0
		moved, err := svc.MoveTask(ctx, a.ID, model.ColumnToday, &pos)
		require.NoError(t, err)
		assert.Equal(t, 0, moved.Position)
		AssertDense(t, pool, model.ColumnToday)
	})

	t.Run("beyond the end clamps to append", func(t *testing.T) {
		pos := 99
		moved, err := svc.MoveTask(ctx, a.ID, model.ColumnToday, &pos)
		require.NoError(t, err)
		assert.Equal(t, 1, moved.Position, "clamped to the last slot")
		AssertDense(t, pool, model.ColumnToday)
	})

	t.Run("nil position appends", func(t *testing.T) {
		moved, err := svc.MoveTask(ctx, a.ID, model.ColumnTomorrow, nil)
		require.NoError(t, err)
		assert.Equal(t, model.ColumnTomorrow, moved.Column)
		assert.Equal(t, 0, moved.Position)
		AssertDense(t, pool, model.ColumnToday)
		AssertDense(t, pool, model.ColumnTomorrow)
	})

	t.Run("negative position is rejected", func(t *testing.T) {
		pos := -1
		_, err := svc.MoveTask(ctx, a.ID, model.ColumnToday, &pos)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("invalid column is rejected", func(t *testing.T) {
		_, err := svc.MoveTask(ctx, a.ID, model.Column("someday"), nil)
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("archived task cannot move", func(t *testing.T) {
		archived, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "C", Column: model.ColumnHorizon}, "")
		require.NoError(t, err)
		_, err = svc.ArchiveTask(ctx, archived.ID)
		require.NoError(t, err)

		_, err = svc.MoveTask(ctx, archived.ID, model.ColumnToday, nil)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})
}

// Scenario: complete, archive, restore. Completed must survive the
// round trip; archiving twice equals archiving once.
func TestLifecycle_CompleteArchiveRestore(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Report", Column: model.ColumnToday}, "")
	require.NoError(t, err)

	task, err = svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, task.Completed)
	assert.False(t, task.Archived, "completing does not archive")
	require.NotNil(t, task.CompletedAt)
	completedAt := *task.CompletedAt

	// Idempotent: completing again keeps the original timestamp.
	task, err = svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, completedAt, *task.CompletedAt)

	task, err = svc.ArchiveTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, task.Archived)
	assert.True(t, task.Completed, "archiving does not touch completed")

	// Idempotent: archiving twice produces the same state.
	again, err := svc.ArchiveTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Archived, again.Archived)
	assert.Equal(t, *task.ArchivedAt, *again.ArchivedAt)

	task, err = svc.RestoreTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, task.Archived)
	assert.Nil(t, task.ArchivedAt)
	assert.True(t, task.Completed, "restore must not clear completed")
}

func TestLifecycle_ArchiveClosesGapAndRestoreAppends(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	tasks := make([]model.Task, 3)
	for i := range tasks {
		task, err := svc.CreateTask(ctx, service.CreateTaskInput{
			Title:  fmt.Sprintf("Task %d", i),
			Column: model.ColumnToday,
		}, "")
		require.NoError(t, err)
		tasks[i] = task
	}

	_, err := svc.ArchiveTask(ctx, tasks[1].ID)
	require.NoError(t, err)
	AssertDense(t, pool, model.ColumnToday)

	last, err := svc.GetTask(ctx, tasks[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, last.Position, "gap closed after archive")

	restored, err := svc.RestoreTask(ctx, tasks[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Position, "restore appends at the end")
	AssertDense(t, pool, model.ColumnToday)
}

func TestLifecycle_ChecklistItemsSurviveArchive(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Packing list", Column: model.ColumnThisWeek}, "")
	require.NoError(t, err)
	task, err = svc.AddItem(ctx, task.ID, "Passport")
	require.NoError(t, err)
	task, err = svc.AddItem(ctx, task.ID, "Charger")
	require.NoError(t, err)

	archived, err := svc.ArchiveTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, archived.Items, 2, "items stay attached while archived")

	restored, err := svc.RestoreTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, restored.Items, 2)
	assert.Equal(t, "Passport", restored.Items[0].Title)
	assert.Equal(t, model.KindChecklist, restored.Kind)
}

func TestUpdateTask_UncompleteViaPatch(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Flaky chore", Column: model.ColumnToday}, "")
	require.NoError(t, err)
	task, err = svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)

	pending := false
	task, err = svc.UpdateTask(ctx, task.ID, model.TaskPatch{Completed: &pending})
	require.NoError(t, err)
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
	assert.False(t, task.Archived, "un-completing has no effect on archived")
}

// Scenario: converting a note creates the task and archives the note
// with a back-reference, atomically.
func TestConvertNote(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, "buy milk", "two liters, lactose free")
	require.NoError(t, err)

	task, err := svc.ConvertNote(ctx, note.ID, model.ConvertOverrides{Column: model.ColumnTomorrow})
	require.NoError(t, err)
	assert.Equal(t, "buy milk", task.Title)
	assert.Equal(t, "two liters, lactose free", task.Notes)
	assert.Equal(t, model.ColumnTomorrow, task.Column)
	assert.Equal(t, model.KindCard, task.Kind)

	converted, err := svc.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.True(t, converted.Archived)
	require.NotNil(t, converted.TaskID)
	assert.Equal(t, task.ID, *converted.TaskID)
}

func TestConvertNote_Atomicity(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	store := repo.NewStore(pool)
	ctx := context.Background()

	t.Run("archived note rejected, no task created", func(t *testing.T) {
		note, err := svc.CreateNote(ctx, "stale idea", "")
		require.NoError(t, err)
		_, err = svc.ArchiveNote(ctx, note.ID)
		require.NoError(t, err)

		_, err = svc.ConvertNote(ctx, note.ID, model.ConvertOverrides{})
		assert.ErrorIs(t, err, service.ErrInvalidTransition)

		var count int
		require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("already converted note rejected", func(t *testing.T) {
		note, err := svc.CreateNote(ctx, "once only", "")
		require.NoError(t, err)
		_, err = svc.ConvertNote(ctx, note.ID, model.ConvertOverrides{})
		require.NoError(t, err)

		_, err = svc.ConvertNote(ctx, note.ID, model.ConvertOverrides{})
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("failure after task creation rolls everything back", func(t *testing.T) {
		TruncateTables(t, pool)

		note, err := svc.CreateNote(ctx, "doomed", "never becomes a task")
		require.NoError(t, err)

		boom := errors.New("boom")
		err = store.InTx(ctx, func(q repo.Querier) error {
			notes := repo.NewNoteRepo(q)
			tasks := repo.NewTaskRepo(q)

			n, err := notes.GetForUpdate(ctx, note.ID)
			require.NoError(t, err)

			created, err := tasks.Create(ctx, model.Task{Title: n.Title, Notes: n.Content, Column: model.ColumnToday})
			require.NoError(t, err)
			require.NotZero(t, created.ID)

			// Fail between task creation and the note update.
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var taskCount int
		require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM tasks").Scan(&taskCount))
		assert.Zero(t, taskCount, "task insert rolled back")

		after, err := svc.GetNote(ctx, note.ID)
		require.NoError(t, err)
		assert.False(t, after.Archived, "note untouched")
		assert.Nil(t, after.TaskID)
	})
}

func TestRoutine_StatusTransitions(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	rt, err := svc.CreateRoutine(ctx, "Morning run", "5k before work")
	require.NoError(t, err)
	assert.Equal(t, model.RoutineActive, rt.Status)

	rt, err = svc.PauseRoutine(ctx, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoutinePaused, rt.Status)

	// Pausing a paused routine is a no-op success.
	rt, err = svc.PauseRoutine(ctx, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoutinePaused, rt.Status)

	rt, err = svc.ResumeRoutine(ctx, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoutineActive, rt.Status)

	rt, err = svc.CompleteRoutine(ctx, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoutineCompleted, rt.Status)

	// A completed routine cannot be paused.
	_, err = svc.PauseRoutine(ctx, rt.ID)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	rt, err = svc.ArchiveRoutine(ctx, rt.ID)
	require.NoError(t, err)
	assert.True(t, rt.Archived)

	// Archived routines reject status changes until restored.
	_, err = svc.ResumeRoutine(ctx, rt.ID)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	rt, err = svc.RestoreRoutine(ctx, rt.ID)
	require.NoError(t, err)
	assert.False(t, rt.Archived)
	assert.Equal(t, model.RoutineCompleted, rt.Status, "restore does not change status")
}

func TestRoutineReference_IsWeak(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	rt, err := svc.CreateRoutine(ctx, "Weekly review", "")
	require.NoError(t, err)

	task, err := svc.CreateTask(ctx, service.CreateTaskInput{
		Title:     "Review inbox",
		Column:    model.ColumnThisWeek,
		RoutineID: &rt.ID,
	}, "")
	require.NoError(t, err)
	require.NotNil(t, task.RoutineID)

	// Archiving the routine does not cascade to the task.
	_, err = svc.ArchiveRoutine(ctx, rt.ID)
	require.NoError(t, err)

	after, err := svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, after.Archived)
	require.NotNil(t, after.RoutineID)
	assert.Equal(t, rt.ID, *after.RoutineID)
}

func TestBoard_GroupsByColumn(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Now", Column: model.ColumnToday}, "")
	require.NoError(t, err)
	checklist, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Groceries", Column: model.ColumnToday}, "")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, checklist.ID, "Milk")
	require.NoError(t, err)
	hidden, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Hidden", Column: model.ColumnHorizon}, "")
	require.NoError(t, err)
	_, err = svc.ArchiveTask(ctx, hidden.ID)
	require.NoError(t, err)

	board, err := svc.Board(ctx)
	require.NoError(t, err)

	require.Len(t, board.Today, 2)
	assert.Empty(t, board.Horizon, "archived tasks stay off the board")
	assert.Equal(t, "Now", board.Today[0].Title)
	require.Len(t, board.Today[1].Items, 1, "checklist items are inlined")
}

func TestDeleteTask_ClosesGapAndCascades(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()
	TruncateTables(t, pool)

	svc := NewBoardService(pool)
	ctx := context.Background()

	first, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "First", Column: model.ColumnToday}, "")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, first.ID, "Orphan-to-be")
	require.NoError(t, err)
	second, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Second", Column: model.ColumnToday}, "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, first.ID))

	var itemCount int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM list_items").Scan(&itemCount))
	assert.Zero(t, itemCount, "items go with the hard-deleted task")

	remaining, err := svc.GetTask(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining.Position)
	AssertDense(t, pool, model.ColumnToday)
}
