package model

import (
	"time"

	"github.com/google/uuid"
)

// Column is the board lane a task lives in.
type Column string

const (
	ColumnToday    Column = "today"
	ColumnTomorrow Column = "tomorrow"
	ColumnThisWeek Column = "this_week"
	ColumnHorizon  Column = "horizon"
)

func (c Column) Valid() bool {
	switch c {
	case ColumnToday, ColumnTomorrow, ColumnThisWeek, ColumnHorizon:
		return true
	}
	return false
}

// Kind is derived from child items, never set by a caller.
type Kind string

const (
	KindCard      Kind = "card"
	KindChecklist Kind = "checklist"
)

type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes"`
	Kind        Kind       `json:"kind"`
	Completed   bool       `json:"completed"`
	Archived    bool       `json:"archived"`
	Column      Column     `json:"column"`
	Position    int        `json:"position"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	RoutineID   *uuid.UUID `json:"routine_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`

	Items []ListItem `json:"items,omitempty"`
}

type ListItem struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TaskFilter struct {
	Column   *Column
	Archived bool
}

// TaskPatch enumerates the mutable fields of a task. A nil field is
// left untouched. Kind, column and position are not patchable; they
// change only through item mutations and moves.
type TaskPatch struct {
	Title     *string    `json:"title"`
	Notes     *string    `json:"notes"`
	DueDate   *time.Time `json:"due_date"`
	Completed *bool      `json:"completed"`
	RoutineID *uuid.UUID `json:"routine_id"`
}

type ItemPatch struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// Board is the non-archived view of all columns, tasks in position order.
type Board struct {
	Today    []Task `json:"today"`
	Tomorrow []Task `json:"tomorrow"`
	ThisWeek []Task `json:"this_week"`
	Horizon  []Task `json:"horizon"`
}
