package repository

import (
	"context"

	"fieldexpense/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalEventRepository is append-only: events are recorded and listed,
// never updated or deleted.
type ApprovalEventRepository interface {
	Append(ctx context.Context, event *model.ApprovalEvent) error
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]model.ApprovalEvent, error)
}

type approvalEventRepository struct {
	db *gorm.DB
}

func NewApprovalEventRepository(db *gorm.DB) ApprovalEventRepository {
	return &approvalEventRepository{db: db}
}

func (r *approvalEventRepository) Append(ctx context.Context, event *model.ApprovalEvent) error {
	return GetDB(ctx, r.db).Create(event).Error
}

func (r *approvalEventRepository) ListByReport(ctx context.Context, reportID uuid.UUID) ([]model.ApprovalEvent, error) {
	var events []model.ApprovalEvent
	err := GetDB(ctx, r.db).
		Preload("Actor").
		Where("report_id = ?", reportID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
