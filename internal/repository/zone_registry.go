package repository

import (
	"errors"
	"sort"
	"sync"

	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/models"
)

// ErrZoneNotFound is returned for operations on a zone the registry does not know.
var ErrZoneNotFound = errors.New("zone not found")

// zoneEntry is one registry slot. mu serializes every read-modify-write of
// the entry; the registry map lock is never held while waiting on it.
type zoneEntry struct {
	mu       sync.Mutex
	status   models.ZoneStatus
	override models.OverrideRequest
}

// ZoneRegistry is the in-memory set of known zones and their last-known
// status and override state.
type ZoneRegistry struct {
	mu      sync.RWMutex
	entries map[models.ZoneID]*zoneEntry
	log     *logger.Logger
}

func NewZoneRegistry(log *logger.Logger) *ZoneRegistry {
	if log == nil {
		log = logger.Nop()
	}
	return &ZoneRegistry{
		entries: make(map[models.ZoneID]*zoneEntry),
		log:     log,
	}
}

// Ensure implementation of Zones interface at compile time.
var _ Zones = (*ZoneRegistry)(nil)

// Load replaces the known zone set. Zones still present keep their entries.
func (r *ZoneRegistry) Load(ids []models.ZoneID) {
	next := make(map[models.ZoneID]*zoneEntry, len(ids))

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := next[id]; dup {
			continue
		}
		if e, ok := r.entries[id]; ok {
			next[id] = e
			continue
		}
		next[id] = &zoneEntry{
			status:   models.UnknownStatus(),
			override: models.DefaultOverride(),
		}
	}
	for id := range r.entries {
		if _, ok := next[id]; !ok {
			r.log.Infow("zone_removed", "zone", id)
		}
	}
	r.entries = next
}

func (r *ZoneRegistry) entry(id models.ZoneID) (*zoneEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Get returns a copy of the zone's status and override request.
func (r *ZoneRegistry) Get(id models.ZoneID) (models.ZoneSnapshot, error) {
	e, ok := r.entry(id)
	if !ok {
		return models.ZoneSnapshot{}, ErrZoneNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.ZoneSnapshot{ID: id, Status: e.status, Override: e.override}, nil
}

// ApplyStatus overwrites the zone's status. Unknown zones are logged and ignored.
func (r *ZoneRegistry) ApplyStatus(id models.ZoneID, status models.ZoneStatus) {
	err := r.Mutate(id, func(s *models.ZoneStatus, _ *models.OverrideRequest) error {
		*s = status
		return nil
	})
	if errors.Is(err, ErrZoneNotFound) {
		r.log.Warnw("zone_unknown", "zone", id, "op", "apply_status")
	}
}

// ApplyOverride overwrites the zone's override request. Unknown zones are
// logged and ignored.
func (r *ZoneRegistry) ApplyOverride(id models.ZoneID, req models.OverrideRequest) {
	err := r.Mutate(id, func(_ *models.ZoneStatus, o *models.OverrideRequest) error {
		*o = req
		return nil
	})
	if errors.Is(err, ErrZoneNotFound) {
		r.log.Warnw("zone_unknown", "zone", id, "op", "apply_override")
	}
}

// Mutate runs fn with exclusive access to the zone's entry. fn must not block.
// Changes made by fn are kept even if it returns an error.
func (r *ZoneRegistry) Mutate(id models.ZoneID, fn func(*models.ZoneStatus, *models.OverrideRequest) error) error {
	e, ok := r.entry(id)
	if !ok {
		return ErrZoneNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.status, &e.override)
}

// IDs returns the known zone IDs in ascending order.
func (r *ZoneRegistry) IDs() []models.ZoneID {
	r.mu.RLock()
	ids := make([]models.ZoneID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// List returns snapshots of every zone ordered by ID.
func (r *ZoneRegistry) List() []models.ZoneSnapshot {
	ids := r.IDs()
	out := make([]models.ZoneSnapshot, 0, len(ids))
	for _, id := range ids {
		// a zone removed between IDs and Get is simply skipped
		if s, err := r.Get(id); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of known zones.
func (r *ZoneRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
