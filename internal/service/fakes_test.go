package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/models"
	"sprinkler_client/internal/repository"
)

var errBoom = errors.New("boom")

func newRegistry(ids ...models.ZoneID) *repository.ZoneRegistry {
	r := repository.NewZoneRegistry(logger.Nop())
	r.Load(ids)
	return r
}

// fakeReadiness answers CheckReady with a fixed result. When gate is set,
// each call signals entered and waits for one value on gate.
type fakeReadiness struct {
	result  models.Readiness
	gate    chan models.Readiness
	entered chan struct{}
	calls   atomic.Int32
}

func (f *fakeReadiness) CheckReady(_ context.Context, _ models.ZoneID) models.Readiness {
	f.calls.Add(1)
	if f.gate != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		return <-f.gate
	}
	return f.result
}

type command struct {
	zone    models.ZoneID
	start   bool
	minutes int
}

type fakeCommander struct {
	mu       sync.Mutex
	sent     []command
	startErr error
	stopErr  error
}

func (f *fakeCommander) StartOverride(_ context.Context, id models.ZoneID, minutes int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, command{zone: id, start: true, minutes: minutes})
	return f.startErr
}

func (f *fakeCommander) StopOverride(_ context.Context, id models.ZoneID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, command{zone: id})
	return f.stopErr
}

func (f *fakeCommander) commands() []command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]command(nil), f.sent...)
}

// fakeReadinessSource is the boundary-level readiness answer.
type fakeReadinessSource struct {
	flags map[models.ZoneID]bool
	err   error
	block chan struct{}
}

func (f *fakeReadinessSource) ZoneReadiness(ctx context.Context, _ models.ZoneID) (map[models.ZoneID]bool, error) {
	if f.block != nil {
		<-f.block
	}
	return f.flags, f.err
}

type fakeRemote struct {
	mu        sync.Mutex
	zones     []models.ZoneID
	listErr   error
	statuses  map[models.ZoneID]models.ZoneStatus
	statusErr error
	schedule  []models.ScheduleEvent
	schedErr  error

	// release, when set, holds ZoneStatuses until closed.
	release chan struct{}

	listCalls   atomic.Int32
	statusCalls atomic.Int32
	schedCalls  atomic.Int32
}

func (f *fakeRemote) ListZones(context.Context) ([]models.ZoneID, error) {
	f.listCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.zones, f.listErr
}

func (f *fakeRemote) ZoneStatuses(context.Context) (map[models.ZoneID]models.ZoneStatus, error) {
	f.statusCalls.Add(1)
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses, f.statusErr
}

func (f *fakeRemote) ZoneReadiness(context.Context, models.ZoneID) (map[models.ZoneID]bool, error) {
	return nil, errBoom
}

func (f *fakeRemote) Schedule(context.Context) ([]models.ScheduleEvent, error) {
	f.schedCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schedule, f.schedErr
}

func (f *fakeRemote) set(fn func(*fakeRemote)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}
