package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportStatus enum constants
const (
	ReportStatusDraft             = "DRAFT"
	ReportStatusPendingSupervisor = "PENDING_SUPERVISOR"
	ReportStatusPendingFinance    = "PENDING_FINANCE"
	ReportStatusNeedsRevision     = "NEEDS_REVISION"
	ReportStatusApproved          = "APPROVED"
	ReportStatusRejected          = "REJECTED"
)

// Stage enum constants: which approval party acted or is acting.
const (
	StageSupervisor = "SUPERVISOR"
	StageFinance    = "FINANCE"
)

// Ledger cell adjustment reasons
const (
	ReasonMonthlyCap     = "MONTHLY_CAP"
	ReasonStipendCap     = "STIPEND_CAP"
	ReasonNoRule         = "NO_RULE"
	ReasonActualOverride = "ACTUAL_AMOUNT_OVERRIDE" // useActualAmount bypassed a cap; audit exception, not a violation
)

// LedgerCell is the capped view of one (cost center, category) bucket.
type LedgerCell struct {
	RawAmount    decimal.Decimal `json:"raw_amount"`
	CappedAmount decimal.Decimal `json:"capped_amount"`
	Capped       bool            `json:"capped"`
	Reason       string          `json:"reason,omitempty"`
}

// CostCenterLedger groups the category cells of a single cost center.
type CostCenterLedger struct {
	Categories map[string]LedgerCell `json:"categories"`
	Subtotal   decimal.Decimal       `json:"subtotal"` // sum of capped amounts
}

// DayRow carries the per-day eligibility signals the rule engine evaluated.
type DayRow struct {
	Date             string          `json:"date"` // YYYY-MM-DD
	CostCenter       string          `json:"cost_center"`
	Hours            decimal.Decimal `json:"hours"`
	Miles            decimal.Decimal `json:"miles"`
	DistanceFromBase decimal.Decimal `json:"distance_from_base"`
	PerDiemAmount    decimal.Decimal `json:"per_diem_amount"`
	Eligible         bool            `json:"eligible"`
}

// SummaryLedger is the derived, categorized, rule-capped total view of a
// period's entries. It is regenerated on every aggregation pass and only
// persisted as a snapshot attached to a report, never authoritative.
type SummaryLedger struct {
	CostCenters map[string]CostCenterLedger `json:"cost_centers"`
	GrandTotal  decimal.Decimal             `json:"grand_total"`
}

// LedgerSnapshot is what submit/resubmit freezes onto the report.
type LedgerSnapshot struct {
	Ledger SummaryLedger `json:"ledger"`
	Days   []DayRow      `json:"days"`
}

// Report is the periodic expense report. Exactly one exists per
// (employee_id, period); its status only moves along the lifecycle
// transition table, guarded by a compare-and-swap on status.
type Report struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reports_employee_period" json:"employee_id"`
	Employee   *User     `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Period     string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_reports_employee_period" json:"period"`
	Status     string    `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`

	SubmittedAt *time.Time `json:"submitted_at"`
	SubmittedBy *uuid.UUID `gorm:"type:uuid" json:"submitted_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ReviewedBy  *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	ApprovedAt  *time.Time `json:"approved_at"`
	ApprovedBy  *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	RejectedAt  *time.Time `json:"rejected_at"`
	RejectedBy  *uuid.UUID `gorm:"type:uuid" json:"rejected_by"`

	RejectionReason     string `gorm:"type:text" json:"rejection_reason"`
	Comments            string `gorm:"type:text" json:"comments"`
	RevisionRequestedBy string `gorm:"type:varchar(20)" json:"revision_requested_by"` // SUPERVISOR or FINANCE

	Snapshot *LedgerSnapshot `gorm:"type:jsonb;serializer:json" json:"snapshot"`
	// TotalAmount denormalizes the snapshot's grand total so finance
	// statistics can aggregate without unpacking jsonb.
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Editable reports whether daily entries covered by this report may change.
func (r *Report) Editable() bool {
	return r.Status == ReportStatusDraft || r.Status == ReportStatusNeedsRevision
}

// Pending reports whether the report sits with an approver.
func (r *Report) Pending() bool {
	return r.Status == ReportStatusPendingSupervisor || r.Status == ReportStatusPendingFinance
}
