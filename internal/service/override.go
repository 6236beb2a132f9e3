package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/models"
	"sprinkler_client/internal/override"
	"sprinkler_client/internal/repository"

	"github.com/google/uuid"
)

const (
	defaultCommandTimeout = 10 * time.Second
	auditTimeout          = 2 * time.Second
)

var (
	ErrZoneNotFound         = repository.ErrZoneNotFound
	ErrZoneNotReady         = errors.New("zone not ready")
	ErrReadinessCheckFailed = errors.New("readiness check failed")
	ErrCommandRejected      = errors.New("override command rejected")
	ErrSuperseded           = errors.New("override request superseded")
)

// OverrideService drives the per-zone override machine. Transitions run under
// the zone's registry lock; network calls never do.
type OverrideService struct {
	zones          repository.Zones
	readiness      Readiness
	commander      Commander
	events         repository.EventRepo
	commandTimeout time.Duration
	log            *logger.Logger
	now            func() time.Time

	// minute is the unit of an override duration
	minute time.Duration

	mu   sync.Mutex
	runs map[models.ZoneID]*overrideRun
}

// overrideRun tracks the local end of an accepted override. The controller
// stops the zone on its own; the timer only returns the machine to Idle.
type overrideRun struct {
	timer      *time.Timer
	deadline   time.Time
	generation uint64
	operator   int
}

func NewOverrideService(
	zones repository.Zones,
	readiness Readiness,
	commander Commander,
	events repository.EventRepo,
	commandTimeout time.Duration,
	log *logger.Logger,
) *OverrideService {
	if commandTimeout <= 0 {
		commandTimeout = defaultCommandTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OverrideService{
		zones:          zones,
		readiness:      readiness,
		commander:      commander,
		events:         events,
		commandTimeout: commandTimeout,
		log:            log,
		now:            time.Now,
		minute:         time.Minute,
		runs:           make(map[models.ZoneID]*overrideRun),
	}
}

// SetDuration changes the requested override duration of an idle zone.
// Zero resets the request to its defaults.
func (s *OverrideService) SetDuration(ctx context.Context, id models.ZoneID, minutes int) (models.ZoneSnapshot, error) {
	if _, err := s.apply(id, override.SetDuration(minutes)); err != nil {
		return models.ZoneSnapshot{}, err
	}
	s.record(ctx, id, models.EventDurationChange, fmt.Sprintf("Override duration set to %d min", minutes),
		map[string]any{"minutes": minutes})
	return s.zones.Get(id)
}

// Toggle arms (on) or disarms (off) the zone's manual override and blocks
// until the resulting chain of checks and commands has settled.
func (s *OverrideService) Toggle(ctx context.Context, id models.ZoneID, on bool) (models.ZoneSnapshot, error) {
	ev := override.ToggleOff()
	if on {
		ev = override.ToggleOn()
	}
	err := s.drive(ctx, id, ev)
	snap, getErr := s.zones.Get(id)
	if err != nil {
		return snap, err
	}
	return snap, getErr
}

// apply runs a single transition atomically for the zone. MarkState intents
// are applied inside the same critical section; the rest are returned.
func (s *OverrideService) apply(id models.ZoneID, ev override.Event) ([]override.Intent, error) {
	var intents []override.Intent
	err := s.zones.Mutate(id, func(st *models.ZoneStatus, req *models.OverrideRequest) error {
		res, err := override.Transition(id, *req, ev)
		if err != nil {
			return err
		}
		*req = res.Request
		for _, in := range res.Intents {
			if in.Kind == override.MarkState {
				st.State = in.State
				st.UpdatedAt = s.now().UTC()
				continue
			}
			intents = append(intents, in)
		}
		return nil
	})
	return intents, err
}

// drive feeds ev and every network result that follows it into the machine
// until no further event is produced.
func (s *OverrideService) drive(ctx context.Context, id models.ZoneID, ev override.Event) error {
	var cause error
	for {
		intents, err := s.apply(id, ev)
		switch {
		case errors.Is(err, override.ErrStaleResponse):
			s.log.Infow("override_superseded", "zone", id, "event", ev.Kind.String(), "generation", ev.Generation)
			return ErrSuperseded
		case errors.Is(err, repository.ErrZoneNotFound):
			return fmt.Errorf("%w: %s", ErrZoneNotFound, id)
		case err != nil:
			return err
		}

		var next *override.Event
		for _, in := range intents {
			n, err := s.execute(ctx, id, in, &cause)
			if err != nil {
				return err
			}
			if n != nil {
				next = n
			}
		}
		if next == nil {
			return nil
		}
		ev = *next
	}
}

// execute performs one intent and returns the event carrying its result.
// cause keeps the last command failure so a later ReportRejected can wrap it.
func (s *OverrideService) execute(ctx context.Context, id models.ZoneID, in override.Intent, cause *error) (*override.Event, error) {
	switch in.Kind {
	case override.CheckReadiness:
		s.record(ctx, id, models.EventArmRequested, "Manual override requested",
			map[string]any{"generation": in.Generation})
		r := s.readiness.CheckReady(ctx, id)
		ev := override.ReadinessResolved(in.Generation, r)
		return &ev, nil

	case override.StartOverride:
		err := s.submit(ctx, func(c context.Context) error {
			return s.commander.StartOverride(c, id, in.Duration)
		})
		*cause = err
		if err != nil {
			s.log.Warnw("start_rejected", "zone", id, "duration", in.Duration, "error", err)
			s.record(ctx, id, models.EventStartRejected, "Start command rejected",
				map[string]any{"duration": in.Duration, "error": err.Error()})
		} else {
			s.log.Infow("start_sent", "zone", id, "duration", in.Duration)
			s.record(ctx, id, models.EventStartSent, fmt.Sprintf("Zone started for %d min", in.Duration),
				map[string]any{"duration": in.Duration})
		}
		ev := override.StartResolved(in.Generation, err == nil)
		return &ev, nil

	case override.StopOverride:
		err := s.submit(ctx, func(c context.Context) error {
			return s.commander.StopOverride(c, id)
		})
		*cause = err
		if err != nil {
			s.log.Warnw("stop_rejected", "zone", id, "error", err)
			s.record(ctx, id, models.EventStopRejected, "Stop command rejected",
				map[string]any{"error": err.Error()})
		} else {
			s.log.Infow("stop_sent", "zone", id)
			s.record(ctx, id, models.EventStopSent, "Zone stopped", nil)
		}
		ev := override.StopResolved(in.Generation, in.Duration, err == nil)
		return &ev, nil

	case override.ReportNotReady:
		if in.Readiness == models.CheckFailed {
			s.record(ctx, id, models.EventCheckFailed, "Readiness check failed", nil)
			return nil, fmt.Errorf("%w: %s", ErrReadinessCheckFailed, id)
		}
		s.record(ctx, id, models.EventNotReady, "Zone not ready for manual control", nil)
		return nil, fmt.Errorf("%w: %s", ErrZoneNotReady, id)

	case override.ReportRejected:
		if *cause != nil {
			return nil, fmt.Errorf("%w: %v", ErrCommandRejected, *cause)
		}
		return nil, ErrCommandRejected

	case override.ScheduleCompletion:
		s.scheduleCompletion(ctx, id, in)
		return nil, nil

	case override.ReportCompleted:
		s.log.Infow("override_completed", "zone", id, "duration", in.Duration)
		s.record(ctx, id, models.EventCompleted, fmt.Sprintf("Override of %d min completed", in.Duration),
			map[string]any{"duration": in.Duration})
		return nil, nil

	case override.ReportCancelled:
		s.log.Infow("arm_cancelled", "zone", id)
		s.record(ctx, id, models.EventArmCancelled, "Manual override cancelled before start", nil)
		return nil, nil

	default:
		s.log.Warnw("unhandled_intent", "zone", id, "intent", in.Kind.String())
		return nil, nil
	}
}

// scheduleCompletion arms the zone's end-of-run timer for in.Generation,
// replacing any earlier one. A resumed run keeps its original deadline.
func (s *OverrideService) scheduleCompletion(ctx context.Context, id models.ZoneID, in override.Intent) {
	operator, _ := OperatorFrom(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := s.now().Add(time.Duration(in.Duration) * s.minute)
	if prev, ok := s.runs[id]; ok {
		prev.timer.Stop()
		if in.Resume {
			deadline = prev.deadline
			operator = prev.operator
		}
	}
	wait := max(deadline.Sub(s.now()), 0)

	gen := in.Generation
	s.runs[id] = &overrideRun{
		deadline:   deadline,
		generation: gen,
		operator:   operator,
		timer:      time.AfterFunc(wait, func() { s.complete(id, gen) }),
	}
}

// complete feeds the end of a run into the machine. A run that was disarmed
// or replaced in the meantime is discarded as stale.
func (s *OverrideService) complete(id models.ZoneID, gen uint64) {
	ctx := context.Background()
	s.mu.Lock()
	if run, ok := s.runs[id]; ok && run.generation == gen {
		if run.operator > 0 {
			ctx = WithOperator(ctx, run.operator)
		}
	}
	s.mu.Unlock()

	intents, err := s.apply(id, override.Completed(gen))
	switch {
	case errors.Is(err, override.ErrStaleResponse):
		s.log.Debugw("override_completion_stale", "zone", id, "generation", gen)
		return
	case err != nil:
		s.log.Warnw("override_completion_failed", "zone", id, "generation", gen, "error", err)
		return
	}

	s.mu.Lock()
	if run, ok := s.runs[id]; ok && run.generation == gen {
		delete(s.runs, id)
	}
	s.mu.Unlock()

	var cause error
	for _, in := range intents {
		if _, err := s.execute(ctx, id, in, &cause); err != nil {
			s.log.Warnw("override_completion_intent_failed", "zone", id, "intent", in.Kind.String(), "error", err)
		}
	}
}

// Close stops pending end-of-run timers.
func (s *OverrideService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, run := range s.runs {
		run.timer.Stop()
		delete(s.runs, id)
	}
}

// submit detaches the command from the caller's cancellation so a vanished
// operator cannot turn an in-flight command into a rejection.
func (s *OverrideService) submit(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.commandTimeout)
	defer cancel()
	return fn(ctx)
}

// record appends to the audit log. Failures are logged only.
func (s *OverrideService) record(ctx context.Context, id models.ZoneID, typ, desc string, meta map[string]any) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	ev := models.OverrideEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  s.now().UTC(),
		ZoneID:      id,
		Type:        typ,
		Description: desc,
	}
	if operator, ok := OperatorFrom(ctx); ok {
		ev.OperatorID = operator
	}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := s.events.Append(ctx, ev); err != nil {
		s.log.Warnw("audit_append_failed", "zone", id, "type", typ, "error", err)
	}
}
