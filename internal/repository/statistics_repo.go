package repository

import (
	"context"
	"fmt"
	"time"

	"fieldexpense/internal/model"

	"gorm.io/gorm"
)

type StatisticsRepository interface {
	GetReportStatistics(ctx context.Context, status string, start, end time.Time) (value string, count int, err error)
	GetTopCostCenters(ctx context.Context, status string, start, end time.Time, limit int) ([]model.CostCenterRanking, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

// reportDateColumn picks the timestamp the range filter applies to. Approved
// spend is bracketed on the approval timestamp; pipeline statuses have no
// approval timestamp yet and bracket on creation.
func reportDateColumn(status string) string {
	if status == model.ReportStatusApproved {
		return "approved_at"
	}
	return "created_at"
}

func (r *statisticsRepository) GetReportStatistics(ctx context.Context, status string, start, end time.Time) (string, int, error) {
	var result struct {
		Value string
		Count int
	}
	col := reportDateColumn(status)
	err := GetDB(ctx, r.db).Table("reports").
		Select("COALESCE(CAST(SUM(total_amount) AS TEXT), '0') as value, COUNT(id) as count").
		Where(fmt.Sprintf("status = ? AND %s >= ? AND %s <= ?", col, col), status, start, end).
		Scan(&result).Error
	if err != nil {
		return "", 0, fmt.Errorf("failed to query report statistics: %w", err)
	}
	return result.Value, result.Count, nil
}

// GetTopCostCenters unpacks the ledger snapshots to rank cost centers by
// capped subtotal. Snapshot layout: snapshot->'ledger'->'cost_centers' is a
// map of cost center -> {categories, subtotal}.
func (r *statisticsRepository) GetTopCostCenters(ctx context.Context, status string, start, end time.Time, limit int) ([]model.CostCenterRanking, error) {
	var rankings []model.CostCenterRanking
	col := reportDateColumn(status)
	err := GetDB(ctx, r.db).Raw(fmt.Sprintf(`
		SELECT cc.key AS cost_center,
		       CAST(SUM((cc.value->>'subtotal')::numeric) AS TEXT) AS total_amount,
		       COUNT(DISTINCT reports.id) AS report_count
		FROM reports,
		     jsonb_each(reports.snapshot->'ledger'->'cost_centers') AS cc
		WHERE reports.status = ? AND reports.%s >= ? AND reports.%s <= ?
		GROUP BY cc.key
		ORDER BY SUM((cc.value->>'subtotal')::numeric) DESC
		LIMIT ?
	`, col, col), status, start, end, limit).Scan(&rankings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top cost centers: %w", err)
	}
	return rankings, nil
}
