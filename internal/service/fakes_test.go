package service

import (
	"context"
	"sync"
	"time"

	"fieldexpense/internal/model"
	"fieldexpense/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory stores standing in for the gorm repositories.

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*model.DailyEntry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[uuid.UUID]*model.DailyEntry)}
}

func (f *fakeEntryRepo) Create(_ context.Context, entry *model.DailyEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	clone := *entry
	f.entries[entry.ID] = &clone
	return nil
}

func (f *fakeEntryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.DailyEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok {
		return nil, apperror.NotFound("entry %s not found", id)
	}
	clone := *entry
	return &clone, nil
}

func (f *fakeEntryRepo) Update(_ context.Context, entry *model.DailyEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[entry.ID]; !ok {
		return apperror.NotFound("entry %s not found", entry.ID)
	}
	clone := *entry
	f.entries[entry.ID] = &clone
	return nil
}

func (f *fakeEntryRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	return nil
}

func (f *fakeEntryRepo) ListForPeriod(_ context.Context, employeeID uuid.UUID, start, end time.Time) ([]model.DailyEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.DailyEntry
	for _, entry := range f.entries {
		if entry.EmployeeID != employeeID {
			continue
		}
		if entry.Date.Before(start) || !entry.Date.Before(end) {
			continue
		}
		result = append(result, *entry)
	}
	return result, nil
}

func (f *fakeEntryRepo) ListByEmployee(_ context.Context, employeeID uuid.UUID, page, limit int) ([]model.DailyEntry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.DailyEntry
	for _, entry := range f.entries {
		if entry.EmployeeID == employeeID {
			result = append(result, *entry)
		}
	}
	return result, int64(len(result)), nil
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*model.Report
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[uuid.UUID]*model.Report)}
}

func (f *fakeReportRepo) Create(_ context.Context, report *model.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reports {
		if existing.EmployeeID == report.EmployeeID && existing.Period == report.Period {
			return apperror.Conflict("report already exists for employee %s period %s", report.EmployeeID, report.Period)
		}
	}
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.CreatedAt = time.Now()
	clone := *report
	f.reports[report.ID] = &clone
	return nil
}

func (f *fakeReportRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.reports[id]
	if !ok {
		return nil, apperror.NotFound("report %s not found", id)
	}
	clone := *report
	return &clone, nil
}

func (f *fakeReportRepo) FindByEmployeePeriod(_ context.Context, employeeID uuid.UUID, period string) (*model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, report := range f.reports {
		if report.EmployeeID == employeeID && report.Period == period {
			clone := *report
			return &clone, nil
		}
	}
	return nil, apperror.NotFound("no report for employee %s period %s", employeeID, period)
}

func (f *fakeReportRepo) TransitionStatus(_ context.Context, id uuid.UUID, expected string, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.reports[id]
	if !ok || report.Status != expected {
		return apperror.Conflict("report %s is no longer in status %s", id, expected)
	}
	for col, value := range updates {
		switch col {
		case "status":
			report.Status = value.(string)
		case "submitted_at":
			report.SubmittedAt = value.(*time.Time)
		case "submitted_by":
			report.SubmittedBy = value.(*uuid.UUID)
		case "reviewed_at":
			report.ReviewedAt = value.(*time.Time)
		case "reviewed_by":
			report.ReviewedBy = value.(*uuid.UUID)
		case "approved_at":
			report.ApprovedAt = value.(*time.Time)
		case "approved_by":
			report.ApprovedBy = value.(*uuid.UUID)
		case "rejected_at":
			report.RejectedAt = value.(*time.Time)
		case "rejected_by":
			report.RejectedBy = value.(*uuid.UUID)
		case "rejection_reason":
			report.RejectionReason = value.(string)
		case "comments":
			report.Comments = value.(string)
		case "revision_requested_by":
			report.RevisionRequestedBy = value.(string)
		case "snapshot":
			report.Snapshot = value.(*model.LedgerSnapshot)
		case "total_amount":
			report.TotalAmount = value.(decimal.Decimal)
		}
	}
	return nil
}

func (f *fakeReportRepo) Delete(_ context.Context, id uuid.UUID, expected string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.reports[id]
	if !ok || report.Status != expected {
		return apperror.Conflict("report %s is no longer in status %s", id, expected)
	}
	delete(f.reports, id)
	return nil
}

func (f *fakeReportRepo) ListByEmployee(_ context.Context, employeeID uuid.UUID, status string, page, limit int) ([]model.Report, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.Report
	for _, report := range f.reports {
		if report.EmployeeID != employeeID {
			continue
		}
		if status != "" && report.Status != status {
			continue
		}
		result = append(result, *report)
	}
	return result, int64(len(result)), nil
}

func (f *fakeReportRepo) ListAllByEmployee(_ context.Context, employeeID uuid.UUID) ([]model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.Report
	for _, report := range f.reports {
		if report.EmployeeID == employeeID {
			result = append(result, *report)
		}
	}
	return result, nil
}

func (f *fakeReportRepo) ListByStatus(_ context.Context, status string, page, limit int) ([]model.Report, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.Report
	for _, report := range f.reports {
		if status == "" || report.Status == status {
			result = append(result, *report)
		}
	}
	return result, int64(len(result)), nil
}

func (f *fakeReportRepo) ListBySupervisor(_ context.Context, supervisorID uuid.UUID, status string, page, limit int) ([]model.Report, int64, error) {
	return nil, 0, nil
}

type fakeRuleRepo struct {
	mu    sync.Mutex
	rules map[uuid.UUID]*model.ReimbursementRule
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{rules: make(map[uuid.UUID]*model.ReimbursementRule)}
}

func (f *fakeRuleRepo) Create(_ context.Context, rule *model.ReimbursementRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	clone := *rule
	f.rules[rule.ID] = &clone
	return nil
}

func (f *fakeRuleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ReimbursementRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule, ok := f.rules[id]
	if !ok {
		return nil, apperror.NotFound("reimbursement rule %s not found", id)
	}
	clone := *rule
	return &clone, nil
}

func (f *fakeRuleRepo) Update(_ context.Context, rule *model.ReimbursementRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *rule
	f.rules[rule.ID] = &clone
	return nil
}

func (f *fakeRuleRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rules, id)
	return nil
}

func (f *fakeRuleRepo) ListByCostCenter(_ context.Context, costCenter string) ([]model.ReimbursementRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.ReimbursementRule
	for _, rule := range f.rules {
		if rule.CostCenter == costCenter {
			result = append(result, *rule)
		}
	}
	return result, nil
}

func (f *fakeRuleRepo) ListByCostCenters(_ context.Context, costCenters []string) (map[string][]model.ReimbursementRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[string]bool, len(costCenters))
	for _, cc := range costCenters {
		wanted[cc] = true
	}
	result := make(map[string][]model.ReimbursementRule)
	for _, rule := range f.rules {
		if wanted[rule.CostCenter] {
			result[rule.CostCenter] = append(result[rule.CostCenter], *rule)
		}
	}
	return result, nil
}

func (f *fakeRuleRepo) List(_ context.Context, page, limit int) ([]model.ReimbursementRule, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.ReimbursementRule
	for _, rule := range f.rules {
		result = append(result, *rule)
	}
	return result, int64(len(result)), nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []model.ApprovalEvent
}

func (f *fakeEventRepo) Append(_ context.Context, event *model.ApprovalEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEventRepo) ListByReport(_ context.Context, reportID uuid.UUID) ([]model.ApprovalEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.ApprovalEvent
	for _, event := range f.events {
		if event.ReportID == reportID {
			result = append(result, event)
		}
	}
	return result, nil
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AuditLog(nil), f.logs...), int64(len(f.logs)), nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user %s not found", id)
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperror.NotFound("user with email %s not found", email)
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperror.NotFound("user %s not found", username)
}

func (f *fakeUserRepo) List(_ context.Context, page, limit int) ([]model.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.User
	for _, user := range f.users {
		result = append(result, *user)
	}
	return result, int64(len(result)), nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

// fakeTxManager runs the closure without a real transaction.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type capturedNotifier struct {
	mu     sync.Mutex
	events []LifecycleEvent
}

func (n *capturedNotifier) Publish(event LifecycleEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *capturedNotifier) all() []LifecycleEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]LifecycleEvent(nil), n.events...)
}
