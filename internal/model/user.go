package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role enum constants
const (
	RoleAdmin      = "admin"
	RoleFinance    = "finance"
	RoleSupervisor = "supervisor"
	RoleEmployee   = "employee"
)

// User represents an account in the approval chain. Field staff have an
// assigned supervisor; a user without one submits straight to finance.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password     string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Role         string         `gorm:"type:varchar(50);not null" json:"role"`
	SupervisorID *uuid.UUID     `gorm:"type:uuid;index" json:"supervisor_id"`
	Supervisor   *User          `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
	BaseLocation string         `gorm:"type:varchar(255)" json:"base_location"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// ValidRole reports whether role is one of the four known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleFinance, RoleSupervisor, RoleEmployee:
		return true
	}
	return false
}
