package repository

import (
	"context"
	"errors"
	"time"

	"fieldexpense/internal/model"
	"fieldexpense/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntryRepository is the Entry Store: it persists raw DailyEntry records.
type EntryRepository interface {
	Create(ctx context.Context, entry *model.DailyEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DailyEntry, error)
	Update(ctx context.Context, entry *model.DailyEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListForPeriod returns all entries for the employee whose date falls in
	// [start, end), ordered by date then cost center for deterministic
	// aggregation.
	ListForPeriod(ctx context.Context, employeeID uuid.UUID, start, end time.Time) ([]model.DailyEntry, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID, page, limit int) ([]model.DailyEntry, int64, error)
}

type entryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) Create(ctx context.Context, entry *model.DailyEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *entryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DailyEntry, error) {
	var entry model.DailyEntry
	if err := GetDB(ctx, r.db).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("entry %s not found", id)
		}
		return nil, err
	}
	return &entry, nil
}

func (r *entryRepository) Update(ctx context.Context, entry *model.DailyEntry) error {
	return GetDB(ctx, r.db).Save(entry).Error
}

func (r *entryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.DailyEntry{}).Error
}

func (r *entryRepository) ListForPeriod(ctx context.Context, employeeID uuid.UUID, start, end time.Time) ([]model.DailyEntry, error) {
	var entries []model.DailyEntry
	err := GetDB(ctx, r.db).
		Where("employee_id = ? AND date >= ? AND date < ?", employeeID, start, end).
		Order("date ASC, cost_center ASC, created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *entryRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID, page, limit int) ([]model.DailyEntry, int64, error) {
	var entries []model.DailyEntry
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.DailyEntry{}).Where("employee_id = ?", employeeID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("employee_id = ?", employeeID).
		Order("date DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
