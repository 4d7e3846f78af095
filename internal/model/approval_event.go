package model

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle action enum constants
const (
	ActionSubmit          = "SUBMIT"
	ActionApprove         = "APPROVE"
	ActionReject          = "REJECT"
	ActionRequestRevision = "REQUEST_REVISION"
	ActionResubmit        = "RESUBMIT"
	ActionDelete          = "DELETE"
)

// ApprovalEvent is one append-only row per successful lifecycle transition.
// Rows are never updated or deleted; ordering by created_at is the source
// of truth for a report's approval history.
type ApprovalEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReportID   uuid.UUID `gorm:"type:uuid;not null;index" json:"report_id"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null" json:"actor_id"`
	Actor      *User     `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	ActorRole  string    `gorm:"type:varchar(50);not null" json:"actor_role"`
	Action     string    `gorm:"type:varchar(30);not null" json:"action"`
	FromStatus string    `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus   string    `gorm:"type:varchar(20);not null" json:"to_status"`
	Comments   string    `gorm:"type:text" json:"comments"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
