package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumn_Valid(t *testing.T) {
	tests := []struct {
		name   string
		column Column
		want   bool
	}{
		{"today", ColumnToday, true},
		{"tomorrow", ColumnTomorrow, true},
		{"this_week", ColumnThisWeek, true},
		{"horizon", ColumnHorizon, true},
		{"empty", Column(""), false},
		{"unknown", Column("someday"), false},
		{"case sensitive", Column("Today"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.column.Valid())
		})
	}
}
