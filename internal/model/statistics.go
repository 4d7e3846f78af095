package model

import "time"

// CostCenterRanking is a read-model row for finance statistics: total
// approved spend attributed to one cost center.
type CostCenterRanking struct {
	CostCenter  string `json:"cost_center"`
	TotalAmount string `json:"total_amount"`
	ReportCount int    `json:"report_count"`
}

// StatisticsResponse is the finance dashboard payload for a time range.
type StatisticsResponse struct {
	TimeRangeStartDate  time.Time           `json:"time_range_start_date"`
	TimeRangeEndDate    time.Time           `json:"time_range_end_date"`
	ApprovedTotal       string              `json:"approved_total"`
	ApprovedReportCount int                 `json:"approved_report_count"`
	PendingReportCount  int                 `json:"pending_report_count"`
	TopCostCenters      []CostCenterRanking `json:"top_cost_centers"`
}
