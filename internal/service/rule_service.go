package service

import (
	"context"
	"encoding/json"

	"fieldexpense/internal/model"
	"fieldexpense/internal/repository"
	"fieldexpense/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateRuleRequest struct {
	CostCenter          string `json:"cost_center" binding:"required"`
	RuleType            string `json:"rule_type" binding:"required,oneof=PER_DIEM_DAILY PER_DIEM_MONTHLY EXPENSE_STIPEND"`
	MinHours            string `json:"min_hours"`
	MinMiles            string `json:"min_miles"`
	MinDistanceFromBase string `json:"min_distance_from_base"`
	MaxAmount           string `json:"max_amount"`
	UseActualAmount     bool   `json:"use_actual_amount"`
	Description         string `json:"description"`
}

type RuleResponse struct {
	ID                  string `json:"id"`
	CostCenter          string `json:"cost_center"`
	RuleType            string `json:"rule_type"`
	MinHours            string `json:"min_hours"`
	MinMiles            string `json:"min_miles"`
	MinDistanceFromBase string `json:"min_distance_from_base"`
	MaxAmount           string `json:"max_amount"`
	UseActualAmount     bool   `json:"use_actual_amount"`
	Description         string `json:"description"`
}

// --- Interface ---

type RuleService interface {
	CreateRule(ctx context.Context, userID uuid.UUID, req CreateRuleRequest) (RuleResponse, error)
	UpdateRule(ctx context.Context, userID, ruleID uuid.UUID, req CreateRuleRequest) (RuleResponse, error)
	DeleteRule(ctx context.Context, userID, ruleID uuid.UUID) error
	ListRules(ctx context.Context, costCenter string, page, limit int) ([]RuleResponse, int64, error)
}

type ruleService struct {
	ruleRepo  repository.RuleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewRuleService(
	ruleRepo repository.RuleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) RuleService {
	return &ruleService{ruleRepo: ruleRepo, auditRepo: auditRepo, txManager: txManager}
}

// --- Implementation ---

func (s *ruleService) CreateRule(ctx context.Context, userID uuid.UUID, req CreateRuleRequest) (RuleResponse, error) {
	rule, err := buildRule(req)
	if err != nil {
		return RuleResponse{}, err
	}

	// One rule per (cost center, rule type).
	existing, err := s.ruleRepo.ListByCostCenter(ctx, req.CostCenter)
	if err != nil {
		return RuleResponse{}, err
	}
	for _, r := range existing {
		if r.RuleType == req.RuleType {
			return RuleResponse{}, apperror.Conflict("cost center %s already has a %s rule", req.CostCenter, req.RuleType)
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.ruleRepo.Create(txCtx, rule); createErr != nil {
			return createErr
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateRule, rule)
	})
	if err != nil {
		return RuleResponse{}, err
	}

	return toRuleResponse(rule), nil
}

func (s *ruleService) UpdateRule(ctx context.Context, userID, ruleID uuid.UUID, req CreateRuleRequest) (RuleResponse, error) {
	rule, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		return RuleResponse{}, err
	}

	updated, err := buildRule(req)
	if err != nil {
		return RuleResponse{}, err
	}
	updated.ID = rule.ID
	updated.CreatedAt = rule.CreatedAt

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.ruleRepo.Update(txCtx, updated); saveErr != nil {
			return saveErr
		}
		return s.writeAudit(txCtx, userID, model.ActionUpdateRule, updated)
	})
	if err != nil {
		return RuleResponse{}, err
	}

	return toRuleResponse(updated), nil
}

func (s *ruleService) DeleteRule(ctx context.Context, userID, ruleID uuid.UUID) error {
	rule, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.ruleRepo.Delete(txCtx, ruleID); delErr != nil {
			return delErr
		}
		return s.writeAudit(txCtx, userID, model.ActionDeleteRule, rule)
	})
}

func (s *ruleService) ListRules(ctx context.Context, costCenter string, page, limit int) ([]RuleResponse, int64, error) {
	if costCenter != "" {
		rules, err := s.ruleRepo.ListByCostCenter(ctx, costCenter)
		if err != nil {
			return nil, 0, err
		}
		result := make([]RuleResponse, 0, len(rules))
		for i := range rules {
			result = append(result, toRuleResponse(&rules[i]))
		}
		return result, int64(len(result)), nil
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	rules, total, err := s.ruleRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	result := make([]RuleResponse, 0, len(rules))
	for i := range rules {
		result = append(result, toRuleResponse(&rules[i]))
	}
	return result, total, nil
}

// --- Helpers ---

func buildRule(req CreateRuleRequest) (*model.ReimbursementRule, error) {
	if !model.ValidRuleType(req.RuleType) {
		return nil, apperror.Validation("unknown rule type %q", req.RuleType)
	}

	parse := func(raw, name string) (decimal.Decimal, error) {
		if raw == "" {
			return decimal.Zero, nil
		}
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, apperror.Validation("invalid %s: %q", name, raw)
		}
		if parsed.IsNegative() {
			return decimal.Zero, apperror.Validation("%s must not be negative", name)
		}
		return parsed, nil
	}

	rule := &model.ReimbursementRule{
		CostCenter:      req.CostCenter,
		RuleType:        req.RuleType,
		UseActualAmount: req.UseActualAmount,
		Description:     req.Description,
	}

	var err error
	if rule.MinHours, err = parse(req.MinHours, "min_hours"); err != nil {
		return nil, err
	}
	if rule.MinMiles, err = parse(req.MinMiles, "min_miles"); err != nil {
		return nil, err
	}
	if rule.MinDistanceFromBase, err = parse(req.MinDistanceFromBase, "min_distance_from_base"); err != nil {
		return nil, err
	}
	if rule.MaxAmount, err = parse(req.MaxAmount, "max_amount"); err != nil {
		return nil, err
	}

	if (req.RuleType == model.RuleTypePerDiemMonthly || req.RuleType == model.RuleTypeExpenseStipend) &&
		rule.MaxAmount.IsZero() && !rule.UseActualAmount {
		return nil, apperror.Validation("%s rule requires max_amount or use_actual_amount", req.RuleType)
	}

	return rule, nil
}

func (s *ruleService) writeAudit(ctx context.Context, userID uuid.UUID, action string, rule *model.ReimbursementRule) error {
	details, _ := json.Marshal(map[string]interface{}{
		"cost_center": rule.CostCenter,
		"rule_type":   rule.RuleType,
		"max_amount":  rule.MaxAmount.StringFixed(4),
	})
	audit := &model.AuditLog{
		UserID:     &userID,
		Action:     action,
		EntityID:   rule.ID.String(),
		EntityName: rule.CostCenter + "/" + rule.RuleType,
		Details:    string(details),
	}
	return s.auditRepo.Log(ctx, audit)
}

func toRuleResponse(r *model.ReimbursementRule) RuleResponse {
	return RuleResponse{
		ID:                  r.ID.String(),
		CostCenter:          r.CostCenter,
		RuleType:            r.RuleType,
		MinHours:            r.MinHours.StringFixed(2),
		MinMiles:            r.MinMiles.StringFixed(2),
		MinDistanceFromBase: r.MinDistanceFromBase.StringFixed(2),
		MaxAmount:           r.MaxAmount.StringFixed(4),
		UseActualAmount:     r.UseActualAmount,
		Description:         r.Description,
	}
}
