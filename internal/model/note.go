package model

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Archived bool      `json:"archived"`
	// TaskID is set when the note has been converted to a task.
	TaskID     *uuid.UUID `json:"task_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

type NotePatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// ConvertOverrides are the caller-supplied fields for a note-to-task
// conversion. Column defaults to "today" when unset.
type ConvertOverrides struct {
	Column    Column     `json:"column"`
	DueDate   *time.Time `json:"due_date"`
	RoutineID *uuid.UUID `json:"routine_id"`
}
