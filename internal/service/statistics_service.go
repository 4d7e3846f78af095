package service

import (
	"context"
	"time"

	"fieldexpense/internal/model"
	"fieldexpense/internal/repository"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// GetStatistics aggregates approved reimbursement totals and pipeline depth
// for the finance dashboard, bounded to a time bracket.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error) {
	response := model.StatisticsResponse{
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}

	approvedTotal, approvedCount, err := s.repo.GetReportStatistics(ctx, model.ReportStatusApproved, startDate, endDate)
	if err != nil {
		return response, err
	}
	response.ApprovedTotal = approvedTotal
	response.ApprovedReportCount = approvedCount

	for _, status := range []string{model.ReportStatusPendingSupervisor, model.ReportStatusPendingFinance} {
		_, count, err := s.repo.GetReportStatistics(ctx, status, startDate, endDate)
		if err != nil {
			return response, err
		}
		response.PendingReportCount += count
	}

	topCostCenters, err := s.repo.GetTopCostCenters(ctx, model.ReportStatusApproved, startDate, endDate, 5)
	if err != nil {
		return response, err
	}
	response.TopCostCenters = topCostCenters

	return response, nil
}
