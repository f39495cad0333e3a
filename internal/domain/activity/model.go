package activity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionDenied = "denied"
)

// Entry maps to the activity_log table.
type Entry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Action      string    `db:"action" json:"action"`
	Module      string    `db:"module" json:"module"`
	RecordID    string    `db:"record_id" json:"record_id"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	Module string
	UserID string
}
