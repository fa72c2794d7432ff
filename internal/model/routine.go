package model

import (
	"time"

	"github.com/google/uuid"
)

type RoutineStatus string

const (
	RoutineActive    RoutineStatus = "active"
	RoutinePaused    RoutineStatus = "paused"
	RoutineCompleted RoutineStatus = "completed"
)

type Routine struct {
	ID         uuid.UUID     `json:"id"`
	Title      string        `json:"title"`
	Notes      string        `json:"notes"`
	Status     RoutineStatus `json:"status"`
	Archived   bool          `json:"archived"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	ArchivedAt *time.Time    `json:"archived_at,omitempty"`
}

type RoutinePatch struct {
	Title *string `json:"title"`
	Notes *string `json:"notes"`
}
