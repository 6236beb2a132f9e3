package models

import "time"

// Override audit event types.
const (
	EventArmRequested   = "ARM_REQUESTED"
	EventArmCancelled   = "ARM_CANCELLED"
	EventNotReady       = "NOT_READY"
	EventCheckFailed    = "CHECK_FAILED"
	EventStartSent      = "START_SENT"
	EventStartRejected  = "START_REJECTED"
	EventStopSent       = "STOP_SENT"
	EventStopRejected   = "STOP_REJECTED"
	EventDurationChange = "DURATION_CHANGE"
	EventSyncFailed     = "SYNC_FAILED"
	EventCompleted      = "OVERRIDE_COMPLETED"
)

// OverrideEvent is a single entry of the override audit log.
type OverrideEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	ZoneID      ZoneID    `json:"zone_id,omitempty"`
	OperatorID  int       `json:"operator_id,omitempty"` // 0 for background work
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
