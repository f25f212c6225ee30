// Package board maps the kanban board's column identifiers to card statuses
// and back. The mapping is total in both directions: unknown inputs fall back
// to the to-apply column instead of erroring, because drop targets and
// persisted statuses both flow through here and neither path can fail.
package board

import "compass/internal/database/models"

const (
	ColumnToApply    = "to-apply"
	ColumnInProgress = "in-progress"
	ColumnCompleted  = "completed"
)

// Column is one lane of the board.
type Column struct {
	ID     string
	Title  string
	Status models.Status
}

// Columns returns the board's lanes in display order.
func Columns() []Column {
	return []Column{
		{ID: ColumnToApply, Title: "To Apply", Status: models.StatusToApply},
		{ID: ColumnInProgress, Title: "In Progress", Status: models.StatusInProgress},
		{ID: ColumnCompleted, Title: "Completed", Status: models.StatusCompleted},
	}
}

// ColumnStatus translates a column identifier to the card status it holds.
// Unrecognized identifiers map to TO_APPLY.
func ColumnStatus(columnID string) models.Status {
	switch columnID {
	case ColumnInProgress:
		return models.StatusInProgress
	case ColumnCompleted:
		return models.StatusCompleted
	default:
		return models.StatusToApply
	}
}

// StatusColumn translates a card status to the column identifier holding it.
// Unrecognized statuses map to the to-apply column.
func StatusColumn(status models.Status) string {
	switch status {
	case models.StatusInProgress:
		return ColumnInProgress
	case models.StatusCompleted:
		return ColumnCompleted
	default:
		return ColumnToApply
	}
}
