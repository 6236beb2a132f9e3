package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/models"
	"sprinkler_client/internal/repository"
)

// ScheduleService caches the controller's upcoming schedule for display.
// Nothing in the override path reads it.
type ScheduleService struct {
	source ScheduleSource
	zones  repository.Zones
	log    *logger.Logger

	mu        sync.RWMutex
	events    []models.ScheduleEvent
	fetchedAt time.Time
}

func NewScheduleService(source ScheduleSource, zones repository.Zones, log *logger.Logger) *ScheduleService {
	if log == nil {
		log = logger.Nop()
	}
	return &ScheduleService{source: source, zones: zones, log: log}
}

// Upcoming returns the cached schedule, fetching it once if nothing has been
// cached yet.
func (s *ScheduleService) Upcoming(ctx context.Context) ([]models.ScheduleEvent, error) {
	s.mu.RLock()
	loaded := !s.fetchedAt.IsZero()
	s.mu.RUnlock()

	if !loaded {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ScheduleEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}

func (s *ScheduleService) Refresh(ctx context.Context) error {
	events, err := s.source.Schedule(ctx)
	if err != nil {
		s.log.Warnw("schedule_fetch_failed", "error", err)
		return fmt.Errorf("%w: schedule: %v", ErrSyncFailure, err)
	}

	known := make(map[models.ZoneID]struct{})
	for _, id := range s.zones.IDs() {
		known[id] = struct{}{}
	}
	for _, ev := range events {
		if _, ok := known[ev.ZoneID]; !ok {
			s.log.Infow("schedule_zone_unknown", "zone", ev.ZoneID, "event_id", ev.EventID)
		}
	}

	s.mu.Lock()
	s.events = events
	s.fetchedAt = time.Now().UTC()
	s.mu.Unlock()

	s.log.Debugw("schedule_refreshed", "events", len(events))
	return nil
}
