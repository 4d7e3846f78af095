package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleType enum constants
const (
	RuleTypePerDiemDaily   = "PER_DIEM_DAILY"
	RuleTypePerDiemMonthly = "PER_DIEM_MONTHLY"
	RuleTypeExpenseStipend = "EXPENSE_STIPEND"
)

// ReimbursementRule stores per-cost-center reimbursement policy. At most one
// rule exists per (cost_center, rule_type); a missing rule is a meaningful
// state handled by the engine's unconfigured-rule policy.
type ReimbursementRule struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CostCenter string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_rules_cc_type" json:"cost_center"`
	RuleType   string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_rules_cc_type" json:"rule_type"` // PER_DIEM_DAILY, PER_DIEM_MONTHLY, EXPENSE_STIPEND

	// Daily eligibility thresholds (PER_DIEM_DAILY)
	MinHours            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"min_hours"`
	MinMiles            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"min_miles"`
	MinDistanceFromBase decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"min_distance_from_base"`

	// Cap (PER_DIEM_MONTHLY, EXPENSE_STIPEND)
	MaxAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"max_amount"`
	UseActualAmount bool            `gorm:"default:false" json:"use_actual_amount"` // Escape hatch: disables capping, flagged as audit exception

	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidRuleType reports whether t is a known rule type.
func ValidRuleType(t string) bool {
	switch t {
	case RuleTypePerDiemDaily, RuleTypePerDiemMonthly, RuleTypeExpenseStipend:
		return true
	}
	return false
}
