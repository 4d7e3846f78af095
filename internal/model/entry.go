package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType enum constants
const (
	EntryTypeTime        = "TIME"
	EntryTypeMileage     = "MILEAGE"
	EntryTypeReceipt     = "RECEIPT"
	EntryTypeDescription = "DESCRIPTION"
)

// Category enum constants: the buckets the summary ledger is keyed on.
const (
	CategoryPerDiem = "PER_DIEM"
	CategoryMileage = "MILEAGE"
	CategoryEES     = "EES" // expense stipend
	CategoryOther   = "OTHER"
)

// DailyEntry is one of time/mileage/receipt/description logged by an
// employee against a date and cost center. Entries are mutable only while
// the covering report is in DRAFT or NEEDS_REVISION.
type DailyEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_entries_employee_date" json:"employee_id"`
	Employee   *User     `gorm:"foreignKey:EmployeeID" json:"-"`
	Date       time.Time `gorm:"type:date;not null;index:idx_entries_employee_date" json:"date"`
	CostCenter string    `gorm:"type:varchar(50);not null;index" json:"cost_center"`
	Category   string    `gorm:"type:varchar(20);not null" json:"category"`   // PER_DIEM, MILEAGE, EES, OTHER
	EntryType  string    `gorm:"type:varchar(20);not null" json:"entry_type"` // TIME, MILEAGE, RECEIPT, DESCRIPTION

	Hours            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"hours"`
	Miles            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"miles"`
	DistanceFromBase decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"distance_from_base"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`

	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidEntryType reports whether t is a known entry type.
func ValidEntryType(t string) bool {
	switch t {
	case EntryTypeTime, EntryTypeMileage, EntryTypeReceipt, EntryTypeDescription:
		return true
	}
	return false
}

// ValidCategory reports whether c is a known ledger category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryPerDiem, CategoryMileage, CategoryEES, CategoryOther:
		return true
	}
	return false
}
