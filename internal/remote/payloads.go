package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/models"
)

const commandUpdateZoneState = "update_zone_state"

// CommandMessage is the override command body. The shape follows the
// controller's own zone command message.
type CommandMessage struct {
	CommandType     string `json:"command_type"`
	Zone            string `json:"zone"`
	State           int    `json:"state"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

func newCommand(id models.ZoneID, on bool, minutes int) CommandMessage {
	cmd := CommandMessage{CommandType: commandUpdateZoneState, Zone: string(id)}
	if on {
		cmd.State = 1
		cmd.DurationMinutes = minutes
	}
	return cmd
}

type commandAck struct {
	Accepted *bool  `json:"accepted"`
	Reason   string `json:"reason"`
}

// decodeCommandAck treats an empty or ack-less 2xx body as accepted.
func decodeCommandAck(body []byte) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	var ack commandAck
	if err := json.Unmarshal(body, &ack); err != nil {
		// non-JSON 2xx bodies carry no rejection
		return nil
	}
	if ack.Accepted != nil && !*ack.Accepted {
		if ack.Reason != "" {
			return fmt.Errorf("%w: %s", ErrCommandRejected, ack.Reason)
		}
		return ErrCommandRejected
	}
	return nil
}

func decodeZoneList(body []byte) ([]models.ZoneID, error) {
	var raw []string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: zone list: %v", ErrMalformedPayload, err)
	}
	// null must not be read as "the controller has no zones"
	if raw == nil {
		return nil, fmt.Errorf("%w: zone list: null body", ErrMalformedPayload)
	}
	out := make([]models.ZoneID, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, models.ZoneID(s))
	}
	return out, nil
}

type rawZoneStatus struct {
	Status    json.RawMessage `json:"status"`
	NextEvent json.RawMessage `json:"nextEvent"`
}

func decodeZoneStatuses(body []byte, now time.Time, log *logger.Logger) (map[models.ZoneID]models.ZoneStatus, error) {
	var raw map[string]rawZoneStatus
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: zone status: %v", ErrMalformedPayload, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: zone status: null body", ErrMalformedPayload)
	}

	out := make(map[models.ZoneID]models.ZoneStatus, len(raw))
	for id, z := range raw {
		state, err := decodeState(z.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: zone %q status: %v", ErrMalformedPayload, id, err)
		}
		next, err := decodeNextEvent(z.NextEvent, now)
		if err != nil {
			log.Warnw("next_event_unparseable", "zone", id, "value", string(z.NextEvent), "err", err)
			next = nil
		}
		out[models.ZoneID(id)] = models.ZoneStatus{State: state, NextEvent: next, UpdatedAt: now.UTC()}
	}
	return out, nil
}

// decodeState accepts a status string or a boolean active flag.
func decodeState(raw json.RawMessage) (models.ZoneState, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return models.ZoneUnknown, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return models.ParseZoneState(s), nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return models.ZoneOn, nil
		}
		return models.ZoneOff, nil
	}
	return "", fmt.Errorf("unsupported status value %s", raw)
}

var nextEventLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// decodeNextEvent parses the advisory next-event field. Clock-only values
// ("13:00", "13:00:05") resolve to their next occurrence after now.
func decodeNextEvent(raw json.RawMessage, now time.Time) (*time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("next event must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "never") {
		return nil, nil
	}
	for _, layout := range nextEventLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return &t, nil
		}
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if clock, err := time.Parse(layout, s); err == nil {
			t := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, now.Location())
			if !t.After(now) {
				t = t.AddDate(0, 0, 1)
			}
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized time %q", s)
}

func decodeReadiness(body []byte) (map[models.ZoneID]bool, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: readiness: %v", ErrMalformedPayload, err)
	}
	out := make(map[models.ZoneID]bool, len(raw))
	for id, v := range raw {
		var ready bool
		if err := json.Unmarshal(v, &ready); err != nil {
			return nil, fmt.Errorf("%w: readiness for %q is not a boolean", ErrMalformedPayload, id)
		}
		out[models.ZoneID(id)] = ready
	}
	return out, nil
}

func decodeSchedule(body []byte) ([]models.ScheduleEvent, error) {
	var events []models.ScheduleEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("%w: schedule: %v", ErrMalformedPayload, err)
	}
	if events == nil {
		events = []models.ScheduleEvent{}
	}
	return events, nil
}
