package service

import (
	"context"
	"time"

	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/models"
)

const defaultReadinessTimeout = 10 * time.Second

// ReadinessService maps the controller's readiness answer onto a tri-state
// result. Anything other than an explicit boolean for the zone is CheckFailed.
type ReadinessService struct {
	source  ReadinessSource
	timeout time.Duration
	log     *logger.Logger
}

func NewReadinessService(source ReadinessSource, timeout time.Duration, log *logger.Logger) *ReadinessService {
	if timeout <= 0 {
		timeout = defaultReadinessTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReadinessService{source: source, timeout: timeout, log: log}
}

type readinessAnswer struct {
	flags map[models.ZoneID]bool
	err   error
}

// CheckReady never blocks longer than the configured timeout, even when the
// source ignores cancellation.
func (s *ReadinessService) CheckReady(ctx context.Context, id models.ZoneID) models.Readiness {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan readinessAnswer, 1)
	go func() {
		flags, err := s.source.ZoneReadiness(ctx, id)
		done <- readinessAnswer{flags: flags, err: err}
	}()

	var ans readinessAnswer
	select {
	case ans = <-done:
	case <-ctx.Done():
		s.log.Warnw("readiness_timeout", "zone", id, "timeout", s.timeout.String())
		return models.CheckFailed
	}

	if ans.err != nil {
		s.log.Warnw("readiness_check_failed", "zone", id, "error", ans.err)
		return models.CheckFailed
	}
	ready, ok := ans.flags[id]
	if !ok {
		s.log.Warnw("readiness_missing_zone", "zone", id, "answered", len(ans.flags))
		return models.CheckFailed
	}
	if !ready {
		s.log.Infow("zone_not_ready", "zone", id)
		return models.NotReady
	}
	return models.Ready
}
