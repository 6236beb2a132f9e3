package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/models"
	"sprinkler_client/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var ErrSyncFailure = errors.New("status sync failed")

const refreshKey = "zone-status"

// SyncService copies controller status into the registry. It only ever
// writes the status half of an entry.
type SyncService struct {
	zones   repository.Zones
	lister  ZoneLister
	source  StatusSource
	events  repository.EventRepo
	group   singleflight.Group
	failing atomic.Bool
	log     *logger.Logger
}

func NewSyncService(zones repository.Zones, lister ZoneLister, source StatusSource, events repository.EventRepo, log *logger.Logger) *SyncService {
	if log == nil {
		log = logger.Nop()
	}
	return &SyncService{zones: zones, lister: lister, source: source, events: events, log: log}
}

// Bootstrap loads the zone list from the controller into the registry.
func (s *SyncService) Bootstrap(ctx context.Context) error {
	ids, err := s.lister.ListZones(ctx)
	if err != nil {
		s.log.Warnw("bootstrap_failed", "error", err)
		return fmt.Errorf("%w: zone list: %v", ErrSyncFailure, err)
	}
	s.zones.Load(ids)
	s.log.Infow("zones_loaded", "count", s.zones.Len())
	return nil
}

// Refresh fetches zone status once. Concurrent callers share one fetch.
func (s *SyncService) Refresh(ctx context.Context) error {
	ch := s.group.DoChan(refreshKey, func() (any, error) {
		return nil, s.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SyncService) refresh(ctx context.Context) error {
	if s.zones.Len() == 0 {
		if err := s.Bootstrap(ctx); err != nil {
			s.markFailed(ctx, err)
			return err
		}
	}

	statuses, err := s.source.ZoneStatuses(ctx)
	if err != nil {
		s.markFailed(ctx, err)
		return fmt.Errorf("%w: %v", ErrSyncFailure, err)
	}

	known := make(map[models.ZoneID]struct{}, s.zones.Len())
	for _, id := range s.zones.IDs() {
		known[id] = struct{}{}
	}

	applied := 0
	for id, st := range statuses {
		if _, ok := known[id]; !ok {
			s.log.Infow("zone_unknown", "zone", id)
			continue
		}
		s.zones.ApplyStatus(id, st)
		applied++
	}
	if missing := len(known) - applied; missing > 0 {
		s.log.Debugw("zones_missing_from_status", "count", missing)
	}

	if s.failing.Swap(false) {
		s.log.Infow("sync_recovered", "applied", applied)
	}
	return nil
}

// markFailed logs every failure but writes the audit log only when a healthy
// sync turns into a failing one.
func (s *SyncService) markFailed(ctx context.Context, err error) {
	s.log.Warnw("sync_failed", "error", err)
	if s.failing.Swap(true) || s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, auditTimeout)
	defer cancel()
	if aerr := s.events.Append(ctx, models.OverrideEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventSyncFailed,
		Description: "Zone status sync failed",
		Metadata:    map[string]any{"error": err.Error()},
	}); aerr != nil {
		s.log.Warnw("audit_append_failed", "type", models.EventSyncFailed, "error", aerr)
	}
}
