package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateEntry = "CREATE_ENTRY"
	ActionUpdateEntry = "UPDATE_ENTRY"
	ActionDeleteEntry = "DELETE_ENTRY"
	ActionCreateRule  = "CREATE_RULE"
	ActionUpdateRule  = "UPDATE_RULE"
	ActionDeleteRule  = "DELETE_RULE"
	ActionCreateUser  = "CREATE_USER"

	// Report lifecycle actions
	ActionSubmitReport          = "SUBMIT_REPORT"
	ActionApproveReport         = "APPROVE_REPORT"
	ActionRejectReport          = "REJECT_REPORT"
	ActionRequestReportRevision = "REQUEST_REPORT_REVISION"
	ActionResubmitReport        = "RESUBMIT_REPORT"
	ActionDeleteReport          = "DELETE_REPORT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/period)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
