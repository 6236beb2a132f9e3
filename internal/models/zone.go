package models

import (
	"strings"
	"time"
)

// ZoneID identifies a single irrigation output on the remote controller.
type ZoneID string

// ZoneState is the controller-reported hardware state of a zone.
type ZoneState string

const (
	ZoneOn      ZoneState = "On"
	ZoneOff     ZoneState = "Off"
	ZoneUnknown ZoneState = "Unknown"
)

// ParseZoneState maps a remote status string onto ZoneState. Anything that is
// not recognizably on or off is Unknown.
func ParseZoneState(s string) ZoneState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "active", "true", "1":
		return ZoneOn
	case "off", "inactive", "false", "0":
		return ZoneOff
	default:
		return ZoneUnknown
	}
}

// ZoneStatus is the last-known authoritative status of a zone.
// NextEvent is display data only; nil means "None".
type ZoneStatus struct {
	State     ZoneState  `json:"state"`
	NextEvent *time.Time `json:"next_event,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UnknownStatus is the status assigned to a zone before the first sync.
func UnknownStatus() ZoneStatus {
	return ZoneStatus{State: ZoneUnknown}
}

// ZoneSnapshot is a read-only copy of one registry entry.
type ZoneSnapshot struct {
	ID       ZoneID          `json:"id"`
	Status   ZoneStatus      `json:"status"`
	Override OverrideRequest `json:"override"`
}
