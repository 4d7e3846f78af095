package service

import (
	"testing"

	"fieldexpense/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestResolveTargetRole(t *testing.T) {
	cases := []struct {
		name      string
		action    string
		actorRole string
		toStatus  string
		want      string
	}{
		{"submit with supervisor", model.ActionSubmit, model.RoleEmployee, model.ReportStatusPendingSupervisor, model.RoleSupervisor},
		{"submit straight to finance", model.ActionSubmit, model.RoleEmployee, model.ReportStatusPendingFinance, model.RoleFinance},
		{"resubmit to supervisor", model.ActionResubmit, model.RoleEmployee, model.ReportStatusPendingSupervisor, model.RoleSupervisor},
		{"resubmit to finance", model.ActionResubmit, model.RoleEmployee, model.ReportStatusPendingFinance, model.RoleFinance},
		{"supervisor approve notifies finance", model.ActionApprove, model.RoleSupervisor, model.ReportStatusPendingFinance, model.RoleFinance},
		{"finance approve notifies employee", model.ActionApprove, model.RoleFinance, model.ReportStatusApproved, model.RoleEmployee},
		{"reject notifies employee", model.ActionReject, model.RoleSupervisor, model.ReportStatusRejected, model.RoleEmployee},
		{"supervisor revision notifies employee", model.ActionRequestRevision, model.RoleSupervisor, model.ReportStatusNeedsRevision, model.RoleEmployee},
		{"finance revision notifies supervisor", model.ActionRequestRevision, model.RoleFinance, model.ReportStatusNeedsRevision, model.RoleSupervisor},
		{"unknown action", "NOOP", model.RoleAdmin, "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveTargetRole(tc.action, tc.actorRole, tc.toStatus))
		})
	}
}
