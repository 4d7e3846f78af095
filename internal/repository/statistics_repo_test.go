package repository

import (
	"testing"

	"fieldexpense/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestReportDateColumn(t *testing.T) {
	assert.Equal(t, "approved_at", reportDateColumn(model.ReportStatusApproved))

	for _, status := range []string{
		model.ReportStatusDraft,
		model.ReportStatusPendingSupervisor,
		model.ReportStatusPendingFinance,
		model.ReportStatusNeedsRevision,
		model.ReportStatusRejected,
	} {
		assert.Equal(t, "created_at", reportDateColumn(status), status)
	}
}
