package repository

import (
	"context"
	"errors"

	"fieldexpense/internal/model"
	"fieldexpense/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportRepository is the Report Store. Status changes only go through
// TransitionStatus, a compare-and-swap on the current status: two concurrent
// transitions on the same report cannot both succeed.
type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error)
	FindByEmployeePeriod(ctx context.Context, employeeID uuid.UUID, period string) (*model.Report, error)
	// TransitionStatus applies updates iff the report's status still equals
	// expected. A lost race yields a Conflict error, never a silent overwrite.
	TransitionStatus(ctx context.Context, id uuid.UUID, expected string, updates map[string]interface{}) error
	// Delete removes the report iff its status still equals expected.
	Delete(ctx context.Context, id uuid.UUID, expected string) error
	ListByEmployee(ctx context.Context, employeeID uuid.UUID, status string, page, limit int) ([]model.Report, int64, error)
	// ListAllByEmployee returns every report of the employee, for period
	// coverage checks (an employee has at most a few dozen reports).
	ListAllByEmployee(ctx context.Context, employeeID uuid.UUID) ([]model.Report, error)
	ListByStatus(ctx context.Context, status string, page, limit int) ([]model.Report, int64, error)
	ListBySupervisor(ctx context.Context, supervisorID uuid.UUID, status string, page, limit int) ([]model.Report, int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	if err := GetDB(ctx, r.db).Create(report).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("report already exists for employee %s period %s", report.EmployeeID, report.Period)
		}
		return err
	}
	return nil
}

func (r *reportRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	if err := GetDB(ctx, r.db).Preload("Employee").First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("report %s not found", id)
		}
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) FindByEmployeePeriod(ctx context.Context, employeeID uuid.UUID, period string) (*model.Report, error) {
	var report model.Report
	err := GetDB(ctx, r.db).
		First(&report, "employee_id = ? AND period = ?", employeeID, period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("no report for employee %s period %s", employeeID, period)
		}
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) TransitionStatus(ctx context.Context, id uuid.UUID, expected string, updates map[string]interface{}) error {
	res := GetDB(ctx, r.db).Model(&model.Report{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.Conflict("report %s is no longer in status %s", id, expected)
	}
	return nil
}

func (r *reportRepository) Delete(ctx context.Context, id uuid.UUID, expected string) error {
	res := GetDB(ctx, r.db).Where("id = ? AND status = ?", id, expected).Delete(&model.Report{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.Conflict("report %s is no longer in status %s", id, expected)
	}
	return nil
}

func (r *reportRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID, status string, page, limit int) ([]model.Report, int64, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		db = db.Where("employee_id = ?", employeeID)
		if status != "" {
			db = db.Where("status = ?", status)
		}
		return db
	}, page, limit)
}

func (r *reportRepository) ListAllByEmployee(ctx context.Context, employeeID uuid.UUID) ([]model.Report, error) {
	var reports []model.Report
	err := GetDB(ctx, r.db).
		Where("employee_id = ?", employeeID).
		Order("period ASC").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportRepository) ListByStatus(ctx context.Context, status string, page, limit int) ([]model.Report, int64, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		if status != "" {
			return db.Where("status = ?", status)
		}
		return db
	}, page, limit)
}

func (r *reportRepository) ListBySupervisor(ctx context.Context, supervisorID uuid.UUID, status string, page, limit int) ([]model.Report, int64, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		db = db.Joins("JOIN users ON users.id = reports.employee_id").
			Where("users.supervisor_id = ?", supervisorID)
		if status != "" {
			db = db.Where("reports.status = ?", status)
		}
		return db
	}, page, limit)
}

func (r *reportRepository) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB, page, limit int) ([]model.Report, int64, error) {
	var reports []model.Report
	var total int64

	db := GetDB(ctx, r.db)
	if err := scope(db.Model(&model.Report{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := scope(db.Preload("Employee")).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}
