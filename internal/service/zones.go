package service

import (
	"context"

	"sprinkler_client/internal/models"
	"sprinkler_client/internal/repository"
)

type ZoneService struct {
	zones repository.Zones
}

func NewZoneService(zones repository.Zones) *ZoneService {
	return &ZoneService{zones: zones}
}

// List returns a snapshot of every known zone, ordered by ID.
func (s *ZoneService) List(_ context.Context) []models.ZoneSnapshot {
	return s.zones.List()
}

func (s *ZoneService) Get(_ context.Context, id models.ZoneID) (models.ZoneSnapshot, error) {
	return s.zones.Get(id)
}
