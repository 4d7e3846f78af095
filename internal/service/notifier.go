package service

import (
	"encoding/json"
	"time"

	"fieldexpense/internal/model"
	ws "fieldexpense/internal/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LifecycleEvent is emitted exactly once per successful report transition,
// in transition order. Delivery content beyond this payload is the
// notifier's concern.
type LifecycleEvent struct {
	ReportID   uuid.UUID `json:"report_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	Period     string    `json:"period"`
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	TargetRole string    `json:"target_role"`
	Timestamp  time.Time `json:"timestamp"`
}

// ResolveTargetRole derives who a transition notifies, purely from the
// transition table: the next approver for forward moves, the previous
// actor's counterpart for backward ones.
func ResolveTargetRole(action, actorRole, toStatus string) string {
	switch action {
	case model.ActionSubmit, model.ActionResubmit:
		if toStatus == model.ReportStatusPendingSupervisor {
			return model.RoleSupervisor
		}
		return model.RoleFinance
	case model.ActionApprove:
		if actorRole == model.RoleSupervisor {
			return model.RoleFinance
		}
		return model.RoleEmployee
	case model.ActionReject:
		return model.RoleEmployee
	case model.ActionRequestRevision:
		if actorRole == model.RoleFinance {
			return model.RoleSupervisor
		}
		return model.RoleEmployee
	}
	return ""
}

// Notifier consumes lifecycle events.
type Notifier interface {
	Publish(event LifecycleEvent)
}

// hubNotifier pushes events over the websocket hub: events targeting the
// employee go to that user's connections, everything else goes to the
// target role.
type hubNotifier struct {
	hub    *ws.Hub
	logger *zap.Logger
}

func NewHubNotifier(hub *ws.Hub, logger *zap.Logger) Notifier {
	return &hubNotifier{hub: hub, logger: logger}
}

func (n *hubNotifier) Publish(event LifecycleEvent) {
	payload, err := json.Marshal(map[string]interface{}{
		"event": "report_lifecycle",
		"data":  event,
	})
	if err != nil {
		n.logger.Error("failed to encode lifecycle event", zap.Error(err))
		return
	}

	if event.TargetRole == model.RoleEmployee {
		n.hub.SendToUser(event.EmployeeID.String(), payload)
	} else {
		n.hub.SendToRole(event.TargetRole, payload)
	}

	n.logger.Info("lifecycle event",
		zap.String("report_id", event.ReportID.String()),
		zap.String("action", event.Action),
		zap.String("from", event.FromStatus),
		zap.String("to", event.ToStatus),
		zap.String("target_role", event.TargetRole),
	)
}
