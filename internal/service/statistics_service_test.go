package service

import (
	"context"
	"testing"
	"time"

	"fieldexpense/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statsCall struct {
	status     string
	start, end time.Time
}

type fakeStatsRepo struct {
	calls  []statsCall
	totals map[string]string
	counts map[string]int
	top    []model.CostCenterRanking
}

func (f *fakeStatsRepo) GetReportStatistics(_ context.Context, status string, start, end time.Time) (string, int, error) {
	f.calls = append(f.calls, statsCall{status: status, start: start, end: end})
	return f.totals[status], f.counts[status], nil
}

func (f *fakeStatsRepo) GetTopCostCenters(_ context.Context, status string, start, end time.Time, limit int) ([]model.CostCenterRanking, error) {
	f.calls = append(f.calls, statsCall{status: status, start: start, end: end})
	return f.top, nil
}

func TestGetStatistics(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	repo := &fakeStatsRepo{
		totals: map[string]string{model.ReportStatusApproved: "1234.5000"},
		counts: map[string]int{
			model.ReportStatusApproved:          3,
			model.ReportStatusPendingSupervisor: 2,
			model.ReportStatusPendingFinance:    1,
		},
		top: []model.CostCenterRanking{{CostCenter: "AL-SOR", TotalAmount: "900.0000", ReportCount: 2}},
	}
	svc := NewStatisticsService(repo)

	stats, err := svc.GetStatistics(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, "1234.5000", stats.ApprovedTotal)
	assert.Equal(t, 3, stats.ApprovedReportCount)
	assert.Equal(t, 3, stats.PendingReportCount, "both pipeline statuses count as pending")
	assert.Equal(t, repo.top, stats.TopCostCenters)

	// Every query runs against the requested bracket.
	require.Len(t, repo.calls, 4)
	for _, call := range repo.calls {
		assert.Equal(t, start, call.start)
		assert.Equal(t, end, call.end)
	}
}
