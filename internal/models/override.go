package models

// OverridePhase is the position of a zone in the manual-override state machine.
type OverridePhase string

const (
	PhaseIdle              OverridePhase = "IDLE"
	PhaseAwaitingReadiness OverridePhase = "AWAITING_READINESS"
	PhaseArmed             OverridePhase = "ARMED"
)

// Duration bounds for a manual override, in minutes. Zero means unset.
const (
	MinOverrideMinutes = 1
	MaxOverrideMinutes = 60
)

// OverrideRequest is the per-zone manual override record.
//
// Armed implies a readiness check for the current request returned Ready and
// Duration is within [MinOverrideMinutes, MaxOverrideMinutes]. Pending is set
// while a readiness check or a start/stop command is in flight.
type OverrideRequest struct {
	Phase      OverridePhase `json:"phase"`
	Duration   int           `json:"duration_minutes"`
	Armed      bool          `json:"armed"`
	Pending    bool          `json:"pending"`
	Generation uint64        `json:"generation"`
}

// DefaultOverride returns an idle, unarmed request with no duration.
func DefaultOverride() OverrideRequest {
	return OverrideRequest{Phase: PhaseIdle}
}

// Reset returns the default request while keeping the generation counter.
func (r OverrideRequest) Reset() OverrideRequest {
	d := DefaultOverride()
	d.Generation = r.Generation
	return d
}

// ValidDuration reports whether m is an armable override duration.
func ValidDuration(m int) bool {
	return m >= MinOverrideMinutes && m <= MaxOverrideMinutes
}

// Readiness is the outcome of a remote "may this zone be overridden now" query.
type Readiness int

const (
	Ready Readiness = iota + 1
	NotReady
	CheckFailed
)

func (r Readiness) String() string {
	switch r {
	case Ready:
		return "READY"
	case NotReady:
		return "NOT_READY"
	case CheckFailed:
		return "CHECK_FAILED"
	default:
		return "UNKNOWN"
	}
}
