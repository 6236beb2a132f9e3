package repository

import (
	"context"
	"database/sql"
	"time"

	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.Operator, error)
}

// Zones is the shared, concurrency-safe zone registry.
type Zones interface {
	Load(ids []models.ZoneID)
	Get(id models.ZoneID) (models.ZoneSnapshot, error)
	ApplyStatus(id models.ZoneID, status models.ZoneStatus)
	ApplyOverride(id models.ZoneID, req models.OverrideRequest)
	Mutate(id models.ZoneID, fn func(*models.ZoneStatus, *models.OverrideRequest) error) error
	IDs() []models.ZoneID
	List() []models.ZoneSnapshot
	Len() int
}

// EventFilter narrows an audit log query. Zero values mean "no bound".
type EventFilter struct {
	From time.Time
	To   time.Time
	Type string
	Zone models.ZoneID
	// Operator > 0 keeps only entries written on that operator's behalf.
	Operator int
}

type EventRepo interface {
	Append(ctx context.Context, e models.OverrideEvent) error
	List(ctx context.Context, f EventFilter) ([]models.OverrideEvent, error)
}

type Repository struct {
	Zones     Zones
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB, log *logger.Logger) *Repository {
	return &Repository{
		Zones:     NewZoneRegistry(log.Named("registry")),
		EventRepo: NewEventSQLite(db),
		Auth:      NewOperatorRepository(db),
	}
}
