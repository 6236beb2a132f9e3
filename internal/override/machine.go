// Package override holds the per-zone manual-override state machine.
//
// Transition is pure: it maps (request, event) to a new request plus the side
// effects the caller must carry out. The caller owns serialization per zone.
package override

import (
	"fmt"

	"sprinkler_client/internal/models"
)

type EventKind int

const (
	EvSetDuration EventKind = iota + 1
	EvToggleOn
	EvToggleOff
	EvReadinessResolved
	EvStartResolved
	EvStopResolved
	EvCompleted
)

func (k EventKind) String() string {
	switch k {
	case EvSetDuration:
		return "set_duration"
	case EvToggleOn:
		return "toggle_on"
	case EvToggleOff:
		return "toggle_off"
	case EvReadinessResolved:
		return "readiness_resolved"
	case EvStartResolved:
		return "start_resolved"
	case EvStopResolved:
		return "stop_resolved"
	case EvCompleted:
		return "completed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is an input to the state machine.
type Event struct {
	Kind       EventKind
	Minutes    int
	Generation uint64
	Readiness  models.Readiness
	Accepted   bool
}

func SetDuration(minutes int) Event { return Event{Kind: EvSetDuration, Minutes: minutes} }
func ToggleOn() Event { return Event{Kind: EvToggleOn} }
func ToggleOff() Event { return Event{Kind: EvToggleOff} }

func ReadinessResolved(gen uint64, r models.Readiness) Event {
	return Event{Kind: EvReadinessResolved, Generation: gen, Readiness: r}
}

func StartResolved(gen uint64, accepted bool) Event {
	return Event{Kind: EvStartResolved, Generation: gen, Accepted: accepted}
}

// StopResolved carries the duration that was active before the stop so a
// rejected stop can restore it.
func StopResolved(gen uint64, minutes int, accepted bool) Event {
	return Event{Kind: EvStopResolved, Generation: gen, Minutes: minutes, Accepted: accepted}
}

// Completed signals that the bounded run started for gen has elapsed.
func Completed(gen uint64) Event { return Event{Kind: EvCompleted, Generation: gen} }

type IntentKind int

const (
	CheckReadiness IntentKind = iota + 1
	StartOverride
	StopOverride
	MarkState
	ReportNotReady
	ReportRejected
	ReportCancelled
	ScheduleCompletion
	ReportCompleted
)

func (k IntentKind) String() string {
	switch k {
	case CheckReadiness:
		return "check_readiness"
	case StartOverride:
		return "start_override"
	case StopOverride:
		return "stop_override"
	case MarkState:
		return "mark_state"
	case ReportNotReady:
		return "report_not_ready"
	case ReportRejected:
		return "report_rejected"
	case ReportCancelled:
		return "report_cancelled"
	case ScheduleCompletion:
		return "schedule_completion"
	case ReportCompleted:
		return "report_completed"
	default:
		return fmt.Sprintf("intent(%d)", int(k))
	}
}

// Intent is a side effect requested by a transition.
type Intent struct {
	Kind       IntentKind
	Zone       models.ZoneID
	Duration   int
	Generation uint64
	State      models.ZoneState
	Readiness  models.Readiness
	// Resume keeps an already running completion deadline instead of
	// starting a new one. Set when a rejected stop leaves the run going.
	Resume bool
}

// Result is the outcome of a transition.
type Result struct {
	Request models.OverrideRequest
	Intents []Intent
}

// Transition applies ev to req for zone. On error the returned request equals
// req and no intents are produced.
func Transition(zone models.ZoneID, req models.OverrideRequest, ev Event) (Result, error) {
	if req.Phase == "" {
		req.Phase = models.PhaseIdle
	}
	switch ev.Kind {
	case EvSetDuration:
		return setDuration(req, ev.Minutes)
	case EvToggleOn:
		return toggleOn(zone, req)
	case EvToggleOff:
		return toggleOff(zone, req)
	case EvReadinessResolved:
		return readinessResolved(zone, req, ev)
	case EvStartResolved:
		return startResolved(zone, req, ev)
	case EvStopResolved:
		return stopResolved(zone, req, ev)
	case EvCompleted:
		return completed(zone, req, ev)
	default:
		return Result{Request: req}, fmt.Errorf("%w: unknown event %s", ErrInvalidTransition, ev.Kind)
	}
}

func setDuration(req models.OverrideRequest, m int) (Result, error) {
	if req.Phase != models.PhaseIdle {
		return Result{Request: req}, ErrInvalidTransition
	}
	if req.Pending {
		return Result{Request: req}, ErrRequestInProgress
	}
	if m == 0 {
		return Result{Request: req.Reset()}, nil
	}
	if !models.ValidDuration(m) {
		return Result{Request: req}, ErrInvalidDuration
	}
	req.Duration = m
	return Result{Request: req}, nil
}

func toggleOn(zone models.ZoneID, req models.OverrideRequest) (Result, error) {
	if req.Pending {
		return Result{Request: req}, ErrRequestInProgress
	}
	if req.Phase != models.PhaseIdle {
		return Result{Request: req}, ErrInvalidTransition
	}
	if !models.ValidDuration(req.Duration) {
		return Result{Request: req}, ErrInvalidDuration
	}
	req.Phase = models.PhaseAwaitingReadiness
	req.Pending = true
	req.Armed = false
	return Result{
		Request: req,
		Intents: []Intent{{Kind: CheckReadiness, Zone: zone, Duration: req.Duration, Generation: req.Generation}},
	}, nil
}

func toggleOff(zone models.ZoneID, req models.OverrideRequest) (Result, error) {
	switch req.Phase {
	case models.PhaseIdle:
		if req.Pending {
			return Result{Request: req}, ErrRequestInProgress
		}
		return Result{Request: req}, nil
	case models.PhaseAwaitingReadiness:
		next := req.Reset()
		next.Generation++
		return Result{
			Request: next,
			Intents: []Intent{{Kind: ReportCancelled, Zone: zone, Generation: req.Generation}},
		}, nil
	case models.PhaseArmed:
		if req.Pending {
			return Result{Request: req}, ErrRequestInProgress
		}
		next := req.Reset()
		next.Generation++
		next.Pending = true
		return Result{
			Request: next,
			Intents: []Intent{{Kind: StopOverride, Zone: zone, Duration: req.Duration, Generation: next.Generation}},
		}, nil
	default:
		return Result{Request: req}, ErrInvalidTransition
	}
}

func readinessResolved(zone models.ZoneID, req models.OverrideRequest, ev Event) (Result, error) {
	if req.Phase != models.PhaseAwaitingReadiness || req.Generation != ev.Generation {
		return Result{Request: req}, ErrStaleResponse
	}
	next := req
	next.Generation++
	if ev.Readiness != models.Ready {
		next.Phase = models.PhaseIdle
		next.Pending = false
		next.Armed = false
		return Result{
			Request: next,
			Intents: []Intent{{Kind: ReportNotReady, Zone: zone, Duration: req.Duration, Generation: ev.Generation, Readiness: ev.Readiness}},
		}, nil
	}
	next.Phase = models.PhaseArmed
	next.Armed = true
	// the start command is in flight from here on
	next.Pending = true
	return Result{
		Request: next,
		Intents: []Intent{{Kind: StartOverride, Zone: zone, Duration: next.Duration, Generation: next.Generation}},
	}, nil
}

func startResolved(zone models.ZoneID, req models.OverrideRequest, ev Event) (Result, error) {
	if req.Phase != models.PhaseArmed || !req.Pending || req.Generation != ev.Generation {
		return Result{Request: req}, ErrStaleResponse
	}
	if ev.Accepted {
		req.Pending = false
		return Result{
			Request: req,
			Intents: []Intent{
				{Kind: MarkState, Zone: zone, State: models.ZoneOn, Generation: req.Generation},
				{Kind: ScheduleCompletion, Zone: zone, Duration: req.Duration, Generation: req.Generation},
			},
		}, nil
	}
	next := req.Reset()
	next.Generation++
	return Result{
		Request: next,
		Intents: []Intent{{Kind: ReportRejected, Zone: zone, Duration: req.Duration, Generation: req.Generation}},
	}, nil
}

func stopResolved(zone models.ZoneID, req models.OverrideRequest, ev Event) (Result, error) {
	if req.Phase != models.PhaseIdle || !req.Pending || req.Generation != ev.Generation {
		return Result{Request: req}, ErrStaleResponse
	}
	if ev.Accepted {
		req.Pending = false
		return Result{
			Request: req,
			Intents: []Intent{{Kind: MarkState, Zone: zone, State: models.ZoneOff, Generation: req.Generation}},
		}, nil
	}
	// the controller kept the override running; mirror that locally
	req.Phase = models.PhaseArmed
	req.Armed = true
	req.Pending = false
	req.Duration = ev.Minutes
	// the run keeps its original deadline under the new generation
	return Result{
		Request: req,
		Intents: []Intent{
			{Kind: ScheduleCompletion, Zone: zone, Duration: ev.Minutes, Generation: req.Generation, Resume: true},
			{Kind: ReportRejected, Zone: zone, Duration: ev.Minutes, Generation: req.Generation},
		},
	}, nil
}

func completed(zone models.ZoneID, req models.OverrideRequest, ev Event) (Result, error) {
	if req.Phase != models.PhaseArmed || req.Pending || req.Generation != ev.Generation {
		return Result{Request: req}, ErrStaleResponse
	}
	next := req.Reset()
	next.Generation++
	return Result{
		Request: next,
		Intents: []Intent{
			{Kind: MarkState, Zone: zone, State: models.ZoneOff, Generation: req.Generation},
			{Kind: ReportCompleted, Zone: zone, Duration: req.Duration, Generation: req.Generation},
		},
	}, nil
}
