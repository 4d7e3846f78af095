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
	"go.uber.org/zap"
)

// --- DTOs ---

type ReportResponse struct {
	ID                  string                `json:"id"`
	EmployeeID          string                `json:"employee_id"`
	EmployeeName        string                `json:"employee_name,omitempty"`
	Period              string                `json:"period"`
	Status              string                `json:"status"`
	SubmittedAt         *string               `json:"submitted_at"`
	ReviewedAt          *string               `json:"reviewed_at"`
	ApprovedAt          *string               `json:"approved_at"`
	RejectedAt          *string               `json:"rejected_at"`
	RejectionReason     string                `json:"rejection_reason,omitempty"`
	Comments            string                `json:"comments,omitempty"`
	RevisionRequestedBy string                `json:"revision_requested_by,omitempty"`
	TotalAmount         string                `json:"total_amount"`
	Snapshot            *model.LedgerSnapshot `json:"snapshot,omitempty"`
	CreatedAt           string                `json:"created_at"`
}

type ApprovalEventResponse struct {
	ID         string `json:"id"`
	ReportID   string `json:"report_id"`
	ActorID    string `json:"actor_id"`
	ActorName  string `json:"actor_name,omitempty"`
	ActorRole  string `json:"actor_role"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Comments   string `json:"comments,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type CommentsRequest struct {
	Comments string `json:"comments"`
}

// --- Interface ---

// ReportService is the report lifecycle controller: it owns report status,
// validates and applies transitions, freezes entry editability through
// status, and emits exactly one lifecycle event per successful transition.
type ReportService interface {
	CreateOrGetReport(ctx context.Context, employeeID uuid.UUID, period string) (ReportResponse, error)
	GetReport(ctx context.Context, id uuid.UUID) (ReportResponse, error)
	// GetSummaryLedger recomputes live while the report is editable and
	// serves the frozen snapshot once it is not, so callers never see a
	// snapshot that lags behind entry edits.
	GetSummaryLedger(ctx context.Context, id uuid.UUID) (*model.LedgerSnapshot, error)
	GetApprovalHistory(ctx context.Context, id uuid.UUID) ([]ApprovalEventResponse, error)
	ListReports(ctx context.Context, actorID uuid.UUID, actorRole, status string, page, limit int) ([]ReportResponse, int64, error)
	EntriesEditable(ctx context.Context, employeeID uuid.UUID, period string) (bool, error)

	Submit(ctx context.Context, reportID, actorID uuid.UUID) (ReportResponse, error)
	Approve(ctx context.Context, reportID, actorID uuid.UUID, actorRole string) (ReportResponse, error)
	Reject(ctx context.Context, reportID, actorID uuid.UUID, actorRole, comments string) (ReportResponse, error)
	RequestRevision(ctx context.Context, reportID, actorID uuid.UUID, actorRole, comments string) (ReportResponse, error)
	Resubmit(ctx context.Context, reportID, actorID uuid.UUID) (ReportResponse, error)
	Delete(ctx context.Context, reportID, actorID uuid.UUID, actorRole string) error
}

type reportService struct {
	reportRepo repository.ReportRepository
	ruleRepo   repository.RuleRepository
	eventRepo  repository.ApprovalEventRepository
	auditRepo  repository.AuditRepository
	userRepo   repository.UserRepository
	txManager  repository.TransactionManager
	aggregator *Aggregator
	engine     *RuleEngine
	locks      *PeriodLocks
	notifier   Notifier
	logger     *zap.Logger
}

func NewReportService(
	reportRepo repository.ReportRepository,
	ruleRepo repository.RuleRepository,
	eventRepo repository.ApprovalEventRepository,
	auditRepo repository.AuditRepository,
	userRepo repository.UserRepository,
	txManager repository.TransactionManager,
	aggregator *Aggregator,
	engine *RuleEngine,
	locks *PeriodLocks,
	notifier Notifier,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		reportRepo: reportRepo,
		ruleRepo:   ruleRepo,
		eventRepo:  eventRepo,
		auditRepo:  auditRepo,
		userRepo:   userRepo,
		txManager:  txManager,
		aggregator: aggregator,
		engine:     engine,
		locks:      locks,
		notifier:   notifier,
		logger:     logger,
	}
}

// --- Queries ---

func (s *reportService) CreateOrGetReport(ctx context.Context, employeeID uuid.UUID, period string) (ReportResponse, error) {
	if _, err := model.ParsePeriod(period); err != nil {
		return ReportResponse{}, err
	}
	if _, err := s.userRepo.GetByID(ctx, employeeID); err != nil {
		return ReportResponse{}, err
	}

	report, err := s.reportRepo.FindByEmployeePeriod(ctx, employeeID, period)
	if err == nil {
		return toReportResponse(report), nil
	}
	if apperror.KindOf(err) != apperror.KindNotFound {
		return ReportResponse{}, err
	}

	report = &model.Report{
		EmployeeID: employeeID,
		Period:     period,
		Status:     model.ReportStatusDraft,
	}
	if createErr := s.reportRepo.Create(ctx, report); createErr != nil {
		// Lost a create race: the other report is the one report for this
		// (employee, period), so return it.
		if apperror.KindOf(createErr) == apperror.KindConflict {
			existing, findErr := s.reportRepo.FindByEmployeePeriod(ctx, employeeID, period)
			if findErr != nil {
				return ReportResponse{}, findErr
			}
			return toReportResponse(existing), nil
		}
		return ReportResponse{}, createErr
	}

	return toReportResponse(report), nil
}

func (s *reportService) GetReport(ctx context.Context, id uuid.UUID) (ReportResponse, error) {
	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return ReportResponse{}, err
	}
	return toReportResponse(report), nil
}

func (s *reportService) GetSummaryLedger(ctx context.Context, id uuid.UUID) (*model.LedgerSnapshot, error) {
	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if report.Editable() {
		snapshot, _, buildErr := s.buildSnapshot(ctx, report.EmployeeID, report.Period)
		if buildErr != nil {
			return nil, buildErr
		}
		return snapshot, nil
	}

	if report.Snapshot == nil {
		return nil, apperror.NotFound("report %s has no ledger snapshot", id)
	}
	return report.Snapshot, nil
}

func (s *reportService) GetApprovalHistory(ctx context.Context, id uuid.UUID) ([]ApprovalEventResponse, error) {
	if _, err := s.reportRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListByReport(ctx, id)
	if err != nil {
		return nil, err
	}

	result := make([]ApprovalEventResponse, 0, len(events))
	for _, e := range events {
		resp := ApprovalEventResponse{
			ID:         e.ID.String(),
			ReportID:   e.ReportID.String(),
			ActorID:    e.ActorID.String(),
			ActorRole:  e.ActorRole,
			Action:     e.Action,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			Comments:   e.Comments,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		}
		if e.Actor != nil {
			resp.ActorName = e.Actor.Username
		}
		result = append(result, resp)
	}
	return result, nil
}

func (s *reportService) ListReports(ctx context.Context, actorID uuid.UUID, actorRole, status string, page, limit int) ([]ReportResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var reports []model.Report
	var total int64
	var err error

	switch actorRole {
	case model.RoleEmployee:
		reports, total, err = s.reportRepo.ListByEmployee(ctx, actorID, status, page, limit)
	case model.RoleSupervisor:
		reports, total, err = s.reportRepo.ListBySupervisor(ctx, actorID, status, page, limit)
	default: // finance, admin
		reports, total, err = s.reportRepo.ListByStatus(ctx, status, page, limit)
	}
	if err != nil {
		return nil, 0, err
	}

	result := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		resp := toReportResponse(&reports[i])
		resp.Snapshot = nil // list view stays lean
		result = append(result, resp)
	}
	return result, total, nil
}

func (s *reportService) EntriesEditable(ctx context.Context, employeeID uuid.UUID, period string) (bool, error) {
	if _, err := model.ParsePeriod(period); err != nil {
		return false, err
	}

	report, err := s.reportRepo.FindByEmployeePeriod(ctx, employeeID, period)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			// No report yet: nothing has frozen the period.
			return true, nil
		}
		return false, err
	}
	return report.Editable(), nil
}

// --- Transitions ---

func (s *reportService) Submit(ctx context.Context, reportID, actorID uuid.UUID) (ReportResponse, error) {
	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		return ReportResponse{}, err
	}
	if report.EmployeeID != actorID {
		return ReportResponse{}, apperror.Validation("only the report's employee may submit it")
	}
	if report.Status != model.ReportStatusDraft {
		return ReportResponse{}, apperror.Conflict("report %s cannot be submitted from status %s", reportID, report.Status)
	}

	employee, err := s.userRepo.GetByID(ctx, report.EmployeeID)
	if err != nil {
		return ReportResponse{}, err
	}
	toStatus := model.ReportStatusPendingFinance
	if employee.SupervisorID != nil {
		toStatus = model.ReportStatusPendingSupervisor
	}

	unlock := s.locks.Lock(report.EmployeeID, report.Period)
	defer unlock()

	snapshot, total, err := s.buildSnapshot(ctx, report.EmployeeID, report.Period)
	if err != nil {
		return ReportResponse{}, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       toStatus,
		"submitted_at": &now,
		"submitted_by": &actorID,
		"snapshot":     snapshot,
		"total_amount": total,
	}

	return s.applyTransition(ctx, report, transition{
		action:      model.ActionSubmit,
		actorID:     actorID,
		actorRole:   model.RoleEmployee,
		toStatus:    toStatus,
		updates:     updates,
		auditAction: model.ActionSubmitReport,
	})
}

func (s *reportService) Approve(ctx context.Context, reportID, actorID uuid.UUID, actorRole string) (ReportResponse, error) {
	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		return ReportResponse{}, err
	}
	if err := s.guardApprover(ctx, report, actorID, actorRole); err != nil {
		return ReportResponse{}, err
	}

	now := time.Now()
	var toStatus string
	updates := map[string]interface{}{}

	switch actorRole {
	case model.RoleSupervisor:
		if report.Status != model.ReportStatusPendingSupervisor {
			return ReportResponse{}, apperror.Conflict("report %s is not pending supervisor review", reportID)
		}
		toStatus = model.ReportStatusPendingFinance
		updates["reviewed_at"] = &now
		updates["reviewed_by"] = &actorID
	case model.RoleFinance:
		if report.Status != model.ReportStatusPendingFinance {
			return ReportResponse{}, apperror.Conflict("report %s is not pending finance review", reportID)
		}
		toStatus = model.ReportStatusApproved
		updates["approved_at"] = &now
		updates["approved_by"] = &actorID
	default:
		return ReportResponse{}, apperror.Validation("role %s may not approve reports", actorRole)
	}
	updates["status"] = toStatus

	return s.applyTransition(ctx, report, transition{
		action:      model.ActionApprove,
		actorID:     actorID,
		actorRole:   actorRole,
		toStatus:    toStatus,
		updates:     updates,
		auditAction: model.ActionApproveReport,
	})
}

func (s *reportService) Reject(ctx context.Context, reportID, actorID uuid.UUID, actorRole, comments string) (ReportResponse, error) {
	if comments == "" {
		return ReportResponse{}, apperror.Validation("comments are required to reject a report")
	}

	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		return ReportResponse{}, err
	}
	if err := s.guardApprover(ctx, report, actorID, actorRole); err != nil {
		return ReportResponse{}, err
	}
	if err := guardStage(report, actorRole); err != nil {
		return ReportResponse{}, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":           model.ReportStatusRejected,
		"rejected_at":      &now,
		"rejected_by":      &actorID,
		"rejection_reason": comments,
	}

	return s.applyTransition(ctx, report, transition{
		action:      model.ActionReject,
		actorID:     actorID,
		actorRole:   actorRole,
		toStatus:    model.ReportStatusRejected,
		comments:    comments,
		updates:     updates,
		auditAction: model.ActionRejectReport,
	})
}

func (s *reportService) RequestRevision(ctx context.Context, reportID, actorID uuid.UUID, actorRole, comments string) (ReportResponse, error) {
	if comments == "" {
		return ReportResponse{}, apperror.Validation("comments are required to request a revision")
	}

	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		return ReportResponse{}, err
	}
	if err := s.guardApprover(ctx, report, actorID, actorRole); err != nil {
		return ReportResponse{}, err
	}
	if err := guardStage(report, actorRole); err != nil {
		return ReportResponse{}, err
	}

	stage := model.StageSupervisor
	if actorRole == model.RoleFinance {
		stage = model.StageFinance
	}

	updates := map[string]interface{}{
		"status":                model.ReportStatusNeedsRevision,
		"comments":              comments,
		"revision_requested_by": stage,
	}

	return s.applyTransition(ctx, report, transition{
		action:      model.ActionRequestRevision,
		actorID:     actorID,
		actorRole:   actorRole,
		toStatus:    model.ReportStatusNeedsRevision,
		comments:    comments,
		updates:     updates,
		auditAction: model.ActionRequestReportRevision,
	})
}

func (s *reportService) Resubmit(ctx context.Context, reportID, actorID uuid.UUID) (ReportResponse, error) {
	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		return ReportResponse{}, err
	}
	if report.EmployeeID != actorID {
		return ReportResponse{}, apperror.Validation("only the report's employee may resubmit it")
	}
	if report.Status != model.ReportStatusNeedsRevision {
		return ReportResponse{}, apperror.Conflict("report %s cannot be resubmitted from status %s", reportID, report.Status)
	}

	// Return to whichever stage asked for the revision.
	toStatus := model.ReportStatusPendingSupervisor
	if report.RevisionRequestedBy == model.StageFinance {
		toStatus = model.ReportStatusPendingFinance
	}

	unlock := s.locks.Lock(report.EmployeeID, report.Period)
	defer unlock()

	snapshot, total, err := s.buildSnapshot(ctx, report.EmployeeID, report.Period)
	if err != nil {
		return ReportResponse{}, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":                toStatus,
		"submitted_at":          &now,
		"submitted_by":          &actorID,
		"snapshot":              snapshot,
		"total_amount":          total,
		"revision_requested_by": "",
	}

	return s.applyTransition(ctx, report, transition{
		action:      model.ActionResubmit,
		actorID:     actorID,
		actorRole:   model.RoleEmployee,
		toStatus:    toStatus,
		updates:     updates,
		auditAction: model.ActionResubmitReport,
	})
}

func (s *reportService) Delete(ctx context.Context, reportID, actorID uuid.UUID, actorRole string) error {
	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		return err
	}
	if report.EmployeeID != actorID && actorRole != model.RoleAdmin {
		return apperror.Validation("only the report's employee or an admin may delete it")
	}
	if report.Status != model.ReportStatusDraft {
		return apperror.Conflict("only draft reports can be deleted; report %s is %s", reportID, report.Status)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.reportRepo.Delete(txCtx, reportID, model.ReportStatusDraft); delErr != nil {
			return delErr
		}
		return s.writeAudit(txCtx, actorID, model.ActionDeleteReport, report, "")
	})
}

// --- Internals ---

type transition struct {
	action      string
	actorID     uuid.UUID
	actorRole   string
	toStatus    string
	comments    string
	updates     map[string]interface{}
	auditAction string
}

// applyTransition performs the compare-and-swap update, the append-only
// approval event, and the audit row in one transaction, then emits the
// lifecycle event. A CAS miss rolls everything back and surfaces a conflict.
func (s *reportService) applyTransition(ctx context.Context, report *model.Report, t transition) (ReportResponse, error) {
	fromStatus := report.Status

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if casErr := s.reportRepo.TransitionStatus(txCtx, report.ID, fromStatus, t.updates); casErr != nil {
			return casErr
		}

		event := &model.ApprovalEvent{
			ReportID:   report.ID,
			ActorID:    t.actorID,
			ActorRole:  t.actorRole,
			Action:     t.action,
			FromStatus: fromStatus,
			ToStatus:   t.toStatus,
			Comments:   t.comments,
		}
		if appendErr := s.eventRepo.Append(txCtx, event); appendErr != nil {
			return appendErr
		}

		return s.writeAudit(txCtx, t.actorID, t.auditAction, report, t.comments)
	})
	if err != nil {
		return ReportResponse{}, err
	}

	s.notifier.Publish(LifecycleEvent{
		ReportID:   report.ID,
		EmployeeID: report.EmployeeID,
		Period:     report.Period,
		Action:     t.action,
		FromStatus: fromStatus,
		ToStatus:   t.toStatus,
		ActorID:    t.actorID,
		TargetRole: ResolveTargetRole(t.action, t.actorRole, t.toStatus),
		Timestamp:  time.Now(),
	})

	updated, err := s.reportRepo.FindByID(ctx, report.ID)
	if err != nil {
		return ReportResponse{}, err
	}
	return toReportResponse(updated), nil
}

// guardApprover enforces the guards shared by approve/reject/requestRevision:
// the actor may not be the report's own employee, and a supervisor must be
// the one assigned to that employee.
func (s *reportService) guardApprover(ctx context.Context, report *model.Report, actorID uuid.UUID, actorRole string) error {
	if actorID == report.EmployeeID {
		return apperror.Validation("an approver may not act on their own report")
	}
	if actorRole != model.RoleSupervisor && actorRole != model.RoleFinance {
		return apperror.Validation("role %s may not act on reports", actorRole)
	}
	if actorRole == model.RoleSupervisor {
		employee, err := s.userRepo.GetByID(ctx, report.EmployeeID)
		if err != nil {
			return err
		}
		if employee.SupervisorID == nil || *employee.SupervisorID != actorID {
			return apperror.Validation("supervisor is not assigned to this report's employee")
		}
	}
	return nil
}

// guardStage checks that the actor's role matches the stage currently
// holding the report.
func guardStage(report *model.Report, actorRole string) error {
	switch actorRole {
	case model.RoleSupervisor:
		if report.Status != model.ReportStatusPendingSupervisor {
			return apperror.Conflict("report %s is not pending supervisor review", report.ID)
		}
	case model.RoleFinance:
		if report.Status != model.ReportStatusPendingFinance {
			return apperror.Conflict("report %s is not pending finance review", report.ID)
		}
	}
	return nil
}

// buildSnapshot runs the aggregation pass and the rule engine and returns
// the snapshot to freeze onto the report.
func (s *reportService) buildSnapshot(ctx context.Context, employeeID uuid.UUID, periodRaw string) (*model.LedgerSnapshot, decimal.Decimal, error) {
	period, err := model.ParsePeriod(periodRaw)
	if err != nil {
		return nil, decimal.Zero, err
	}

	raw, days, err := s.aggregator.Recompute(ctx, employeeID, period)
	if err != nil {
		return nil, decimal.Zero, err
	}

	costCenters := make([]string, 0, len(raw.CostCenters))
	for cc := range raw.CostCenters {
		costCenters = append(costCenters, cc)
	}
	sort.Strings(costCenters)

	rules, err := s.ruleRepo.ListByCostCenters(ctx, costCenters)
	if err != nil {
		return nil, decimal.Zero, err
	}

	ledger, days, err := s.engine.Evaluate(rules, raw, days)
	if err != nil {
		return nil, decimal.Zero, err
	}

	return &model.LedgerSnapshot{Ledger: ledger, Days: days}, ledger.GrandTotal, nil
}

func (s *reportService) writeAudit(ctx context.Context, actorID uuid.UUID, action string, report *model.Report, comments string) error {
	details, _ := json.Marshal(map[string]interface{}{
		"period":   report.Period,
		"employee": report.EmployeeID.String(),
		"comments": comments,
	})
	audit := &model.AuditLog{
		UserID:     &actorID,
		Action:     action,
		EntityID:   report.ID.String(),
		EntityName: report.Period,
		Details:    string(details),
	}
	return s.auditRepo.Log(ctx, audit)
}

// --- Helpers ---

func toReportResponse(r *model.Report) ReportResponse {
	resp := ReportResponse{
		ID:                  r.ID.String(),
		EmployeeID:          r.EmployeeID.String(),
		Period:              r.Period,
		Status:              r.Status,
		RejectionReason:     r.RejectionReason,
		Comments:            r.Comments,
		RevisionRequestedBy: r.RevisionRequestedBy,
		TotalAmount:         r.TotalAmount.StringFixed(4),
		Snapshot:            r.Snapshot,
		CreatedAt:           r.CreatedAt.Format(time.RFC3339),
	}
	if r.Employee != nil {
		resp.EmployeeName = r.Employee.Username
	}
	resp.SubmittedAt = formatTimePtr(r.SubmittedAt)
	resp.ReviewedAt = formatTimePtr(r.ReviewedAt)
	resp.ApprovedAt = formatTimePtr(r.ApprovedAt)
	resp.RejectedAt = formatTimePtr(r.RejectedAt)
	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
