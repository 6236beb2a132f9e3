package service

import (
	"context"
	"time"

	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/models"
	"sprinkler_client/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Zones exposes the read side of the registry to the operator layer.
type Zones interface {
	List(ctx context.Context) []models.ZoneSnapshot
	Get(ctx context.Context, id models.ZoneID) (models.ZoneSnapshot, error)
}

// Readiness asks the controller whether a zone may be manually driven.
type Readiness interface {
	CheckReady(ctx context.Context, id models.ZoneID) models.Readiness
}

// Override exposes the operator actions on a zone's manual override.
type Override interface {
	SetDuration(ctx context.Context, id models.ZoneID, minutes int) (models.ZoneSnapshot, error)
	Toggle(ctx context.Context, id models.ZoneID, on bool) (models.ZoneSnapshot, error)
}

// Synchronizer pulls zone status from the controller into the registry.
type Synchronizer interface {
	Bootstrap(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// Schedule exposes the cached upcoming schedule for display.
type Schedule interface {
	Upcoming(ctx context.Context) ([]models.ScheduleEvent, error)
	Refresh(ctx context.Context) error
}

// EventLog exposes the override audit log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.OverrideEvent, error)
}

// LogFilter supports history filtering by time range, type, zone and operator.
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Type     string
	Zone     models.ZoneID
	Operator int
}

// Boundary interfaces implemented by remote.Client.

type ZoneLister interface {
	ListZones(ctx context.Context) ([]models.ZoneID, error)
}

type StatusSource interface {
	ZoneStatuses(ctx context.Context) (map[models.ZoneID]models.ZoneStatus, error)
}

type ReadinessSource interface {
	ZoneReadiness(ctx context.Context, id models.ZoneID) (map[models.ZoneID]bool, error)
}

type ScheduleSource interface {
	Schedule(ctx context.Context) ([]models.ScheduleEvent, error)
}

// Commander submits override commands. remote.Client and
// remote.DryRunCommander implement it.
type Commander interface {
	StartOverride(ctx context.Context, id models.ZoneID, minutes int) error
	StopOverride(ctx context.Context, id models.ZoneID) error
}

// Remote is the read side of the controller boundary.
type Remote interface {
	ZoneLister
	StatusSource
	ReadinessSource
	ScheduleSource
}

type Options struct {
	ReadinessTimeout time.Duration
	CommandTimeout   time.Duration
	SigningKey       string
	TokenTTL         time.Duration
}

type Service struct {
	Zones         Zones
	Override      Override
	Readiness     Readiness
	Synchronizer  Synchronizer
	Schedule      Schedule
	EventLog      EventLog
	Authorization Authorization
}

// NewService wires the repository layer and the controller boundary into
// concrete services.
func NewService(repos *repository.Repository, remote Remote, commander Commander, opts Options, log *logger.Logger) *Service {
	readiness := NewReadinessService(remote, opts.ReadinessTimeout, log.Named("readiness"))
	return &Service{
		Zones:         NewZoneService(repos.Zones),
		Override:      NewOverrideService(repos.Zones, readiness, commander, repos.EventRepo, opts.CommandTimeout, log.Named("override")),
		Readiness:     readiness,
		Synchronizer:  NewSyncService(repos.Zones, remote, remote, repos.EventRepo, log.Named("sync")),
		Schedule:      NewScheduleService(remote, repos.Zones, log.Named("schedule")),
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth, opts.SigningKey, opts.TokenTTL),
	}
}

// Close releases background timers held by the services.
func (s *Service) Close() {
	if c, ok := s.Override.(interface{ Close() }); ok {
		c.Close()
	}
}
