package repository

import (
	"context"
	"errors"

	"fieldexpense/internal/model"
	"fieldexpense/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RuleRepository is the Rule Store: per-cost-center reimbursement rules.
type RuleRepository interface {
	Create(ctx context.Context, rule *model.ReimbursementRule) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ReimbursementRule, error)
	Update(ctx context.Context, rule *model.ReimbursementRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByCostCenter(ctx context.Context, costCenter string) ([]model.ReimbursementRule, error)
	// ListByCostCenters fetches rules for several cost centers in one query,
	// keyed by cost center for the rule engine.
	ListByCostCenters(ctx context.Context, costCenters []string) (map[string][]model.ReimbursementRule, error)
	List(ctx context.Context, page, limit int) ([]model.ReimbursementRule, int64, error)
}

type ruleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) Create(ctx context.Context, rule *model.ReimbursementRule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

func (r *ruleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ReimbursementRule, error) {
	var rule model.ReimbursementRule
	if err := GetDB(ctx, r.db).First(&rule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("reimbursement rule %s not found", id)
		}
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepository) Update(ctx context.Context, rule *model.ReimbursementRule) error {
	return GetDB(ctx, r.db).Save(rule).Error
}

func (r *ruleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ReimbursementRule{}).Error
}

func (r *ruleRepository) ListByCostCenter(ctx context.Context, costCenter string) ([]model.ReimbursementRule, error) {
	var rules []model.ReimbursementRule
	if err := GetDB(ctx, r.db).Where("cost_center = ?", costCenter).Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *ruleRepository) ListByCostCenters(ctx context.Context, costCenters []string) (map[string][]model.ReimbursementRule, error) {
	result := make(map[string][]model.ReimbursementRule, len(costCenters))
	if len(costCenters) == 0 {
		return result, nil
	}

	var rules []model.ReimbursementRule
	if err := GetDB(ctx, r.db).Where("cost_center IN ?", costCenters).Find(&rules).Error; err != nil {
		return nil, err
	}

	for _, rule := range rules {
		result[rule.CostCenter] = append(result[rule.CostCenter], rule)
	}
	return result, nil
}

func (r *ruleRepository) List(ctx context.Context, page, limit int) ([]model.ReimbursementRule, int64, error) {
	var rules []model.ReimbursementRule
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.ReimbursementRule{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("cost_center ASC, rule_type ASC").Offset(offset).Limit(limit).Find(&rules).Error; err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}
