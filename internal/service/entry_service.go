package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"fieldexpense/internal/model"
	"fieldexpense/internal/repository"
	"fieldexpense/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateEntryRequest struct {
	Date             string `json:"date" binding:"required"` // YYYY-MM-DD
	CostCenter       string `json:"cost_center" binding:"required"`
	Category         string `json:"category" binding:"required,oneof=PER_DIEM MILEAGE EES OTHER"`
	EntryType        string `json:"entry_type" binding:"required,oneof=TIME MILEAGE RECEIPT DESCRIPTION"`
	Hours            string `json:"hours"`              // Decimal string
	Miles            string `json:"miles"`              // Decimal string
	DistanceFromBase string `json:"distance_from_base"` // Decimal string
	Amount           string `json:"amount"`             // Decimal string
	Description      string `json:"description"`
}

// UpdateEntryRequest treats nil pointers as "leave unchanged". A non-nil
// empty description clears the field; cost center and category must stay
// non-empty.
type UpdateEntryRequest struct {
	CostCenter       *string `json:"cost_center"`
	Category         *string `json:"category" binding:"omitempty,oneof=PER_DIEM MILEAGE EES OTHER"`
	Hours            string  `json:"hours"`
	Miles            string  `json:"miles"`
	DistanceFromBase string  `json:"distance_from_base"`
	Amount           string  `json:"amount"`
	Description      *string `json:"description"`
}

type EntryResponse struct {
	ID               string `json:"id"`
	EmployeeID       string `json:"employee_id"`
	Date             string `json:"date"`
	CostCenter       string `json:"cost_center"`
	Category         string `json:"category"`
	EntryType        string `json:"entry_type"`
	Hours            string `json:"hours"`
	Miles            string `json:"miles"`
	DistanceFromBase string `json:"distance_from_base"`
	Amount           string `json:"amount"`
	Description      string `json:"description"`
	CreatedAt        string `json:"created_at"`
}

// --- Interface ---

// EntryService owns daily entry CRUD. Every mutation checks that no frozen
// report covers the entry's date: entries are editable only while the
// covering report is in DRAFT or NEEDS_REVISION (or does not exist yet).
type EntryService interface {
	CreateEntry(ctx context.Context, employeeID uuid.UUID, req CreateEntryRequest) (EntryResponse, error)
	UpdateEntry(ctx context.Context, employeeID, entryID uuid.UUID, req UpdateEntryRequest) (EntryResponse, error)
	DeleteEntry(ctx context.Context, employeeID, entryID uuid.UUID) error
	ListEntries(ctx context.Context, employeeID uuid.UUID, page, limit int) ([]EntryResponse, int64, error)
}

type entryService struct {
	entryRepo  repository.EntryRepository
	reportRepo repository.ReportRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	locks      *PeriodLocks
}

func NewEntryService(
	entryRepo repository.EntryRepository,
	reportRepo repository.ReportRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	locks *PeriodLocks,
) EntryService {
	return &entryService{
		entryRepo:  entryRepo,
		reportRepo: reportRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		locks:      locks,
	}
}

// --- Implementation ---

func (s *entryService) CreateEntry(ctx context.Context, employeeID uuid.UUID, req CreateEntryRequest) (EntryResponse, error) {
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return EntryResponse{}, apperror.Validation("invalid date %q: expected YYYY-MM-DD", req.Date)
	}

	entry := model.DailyEntry{
		EmployeeID:  employeeID,
		Date:        date,
		CostCenter:  req.CostCenter,
		Category:    req.Category,
		EntryType:   req.EntryType,
		Description: req.Description,
	}
	if err := fillDecimals(&entry, req.Hours, req.Miles, req.DistanceFromBase, req.Amount); err != nil {
		return EntryResponse{}, err
	}

	unlock, err := s.lockCoveringPeriods(ctx, employeeID, date)
	if err != nil {
		return EntryResponse{}, err
	}
	defer unlock()

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.entryRepo.Create(txCtx, &entry); createErr != nil {
			return createErr
		}
		return s.writeAudit(txCtx, employeeID, model.ActionCreateEntry, &entry)
	})
	if err != nil {
		return EntryResponse{}, err
	}

	return toEntryResponse(&entry), nil
}

func (s *entryService) UpdateEntry(ctx context.Context, employeeID, entryID uuid.UUID, req UpdateEntryRequest) (EntryResponse, error) {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		return EntryResponse{}, err
	}
	if entry.EmployeeID != employeeID {
		return EntryResponse{}, apperror.Validation("entry %s does not belong to this employee", entryID)
	}

	unlock, lockErr := s.lockCoveringPeriods(ctx, employeeID, entry.Date)
	if lockErr != nil {
		return EntryResponse{}, lockErr
	}
	defer unlock()

	if req.CostCenter != nil {
		if *req.CostCenter == "" {
			return EntryResponse{}, apperror.Validation("cost_center must not be empty")
		}
		entry.CostCenter = *req.CostCenter
	}
	if req.Category != nil {
		if *req.Category == "" {
			return EntryResponse{}, apperror.Validation("category must not be empty")
		}
		entry.Category = *req.Category
	}
	if req.Description != nil {
		entry.Description = *req.Description
	}
	if err := fillDecimals(entry, req.Hours, req.Miles, req.DistanceFromBase, req.Amount); err != nil {
		return EntryResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.entryRepo.Update(txCtx, entry); saveErr != nil {
			return saveErr
		}
		return s.writeAudit(txCtx, employeeID, model.ActionUpdateEntry, entry)
	})
	if err != nil {
		return EntryResponse{}, err
	}

	return toEntryResponse(entry), nil
}

func (s *entryService) DeleteEntry(ctx context.Context, employeeID, entryID uuid.UUID) error {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.EmployeeID != employeeID {
		return apperror.Validation("entry %s does not belong to this employee", entryID)
	}

	unlock, lockErr := s.lockCoveringPeriods(ctx, employeeID, entry.Date)
	if lockErr != nil {
		return lockErr
	}
	defer unlock()

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.entryRepo.Delete(txCtx, entryID); delErr != nil {
			return delErr
		}
		return s.writeAudit(txCtx, employeeID, model.ActionDeleteEntry, entry)
	})
}

func (s *entryService) ListEntries(ctx context.Context, employeeID uuid.UUID, page, limit int) ([]EntryResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	entries, total, err := s.entryRepo.ListByEmployee(ctx, employeeID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]EntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, toEntryResponse(&entries[i]))
	}
	return result, total, nil
}

// lockCoveringPeriods serializes the mutation against every period window
// that can contain the date, then rejects it when a frozen report covers the
// date. The locks must be held before the report lookup: a submit that wins
// the lock freezes the period, and the lookup below observes the frozen
// status instead of a stale draft. Locks are taken in key order to avoid
// deadlock.
func (s *entryService) lockCoveringPeriods(ctx context.Context, employeeID uuid.UUID, date time.Time) (func(), error) {
	periods := model.PeriodsCovering(date)
	sort.Strings(periods)

	unlocks := make([]func(), 0, len(periods))
	for _, p := range periods {
		unlocks = append(unlocks, s.locks.Lock(employeeID, p))
	}
	unlock := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}

	reports, err := s.reportRepo.ListAllByEmployee(ctx, employeeID)
	if err != nil {
		unlock()
		return nil, err
	}
	for i := range reports {
		period, parseErr := model.ParsePeriod(reports[i].Period)
		if parseErr != nil || !period.Contains(date) {
			continue
		}
		if !reports[i].Editable() {
			unlock()
			return nil, apperror.Conflict("entries for %s are frozen: report %s is %s",
				date.Format("2006-01-02"), reports[i].ID, reports[i].Status)
		}
	}
	return unlock, nil
}

func (s *entryService) writeAudit(ctx context.Context, employeeID uuid.UUID, action string, entry *model.DailyEntry) error {
	details, _ := json.Marshal(map[string]interface{}{
		"date":        entry.Date.Format("2006-01-02"),
		"cost_center": entry.CostCenter,
		"category":    entry.Category,
		"entry_type":  entry.EntryType,
		"amount":      entry.Amount.StringFixed(4),
	})
	audit := &model.AuditLog{
		UserID:     &employeeID,
		Action:     action,
		EntityID:   entry.ID.String(),
		EntityName: entry.CostCenter,
		Details:    string(details),
	}
	return s.auditRepo.Log(ctx, audit)
}

// fillDecimals parses the optional decimal-string fields, leaving a field
// untouched when its input is empty.
func fillDecimals(entry *model.DailyEntry, hours, miles, distance, amount string) error {
	set := func(dst *decimal.Decimal, raw, name string) error {
		if raw == "" {
			return nil
		}
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return apperror.Validation("invalid %s: %q", name, raw)
		}
		if parsed.IsNegative() {
			return apperror.Validation("%s must not be negative", name)
		}
		*dst = parsed
		return nil
	}

	if err := set(&entry.Hours, hours, "hours"); err != nil {
		return err
	}
	if err := set(&entry.Miles, miles, "miles"); err != nil {
		return err
	}
	if err := set(&entry.DistanceFromBase, distance, "distance_from_base"); err != nil {
		return err
	}
	return set(&entry.Amount, amount, "amount")
}

func toEntryResponse(e *model.DailyEntry) EntryResponse {
	return EntryResponse{
		ID:               e.ID.String(),
		EmployeeID:       e.EmployeeID.String(),
		Date:             e.Date.Format("2006-01-02"),
		CostCenter:       e.CostCenter,
		Category:         e.Category,
		EntryType:        e.EntryType,
		Hours:            e.Hours.StringFixed(2),
		Miles:            e.Miles.StringFixed(2),
		DistanceFromBase: e.DistanceFromBase.StringFixed(2),
		Amount:           e.Amount.StringFixed(4),
		Description:      e.Description,
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
	}
}
