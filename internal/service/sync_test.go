package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func status(state models.ZoneState) models.ZoneStatus {
	return models.ZoneStatus{State: state, UpdatedAt: time.Date(2025, 7, 5, 12, 0, 0, 0, time.UTC)}
}

func TestSync_BootstrapLoadsZones(t *testing.T) {
	zones := newRegistry()
	remote := &fakeRemote{zones: []models.ZoneID{"zone1", "zone2", "zone3"}}
	svc := NewSyncService(zones, remote, remote, nil, logger.Nop())

	require.NoError(t, svc.Bootstrap(context.Background()))
	assert.Equal(t, []models.ZoneID{"zone1", "zone2", "zone3"}, zones.IDs())
}

func TestSync_BootstrapFailure(t *testing.T) {
	remote := &fakeRemote{listErr: errBoom}
	svc := NewSyncService(newRegistry(), remote, remote, nil, logger.Nop())

	err := svc.Bootstrap(context.Background())
	assert.ErrorIs(t, err, ErrSyncFailure)
}

func TestSync_RefreshRetriesBootstrapWhileEmpty(t *testing.T) {
	zones := newRegistry()
	remote := &fakeRemote{listErr: errBoom}
	svc := NewSyncService(zones, remote, remote, nil, logger.Nop())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Refresh(ctx), ErrSyncFailure)
	assert.Equal(t, int32(0), remote.statusCalls.Load())

	remote.set(func(r *fakeRemote) {
		r.listErr = nil
		r.zones = []models.ZoneID{zone1}
		r.statuses = map[models.ZoneID]models.ZoneStatus{zone1: status(models.ZoneOn)}
	})
	require.NoError(t, svc.Refresh(ctx))

	snap, err := zones.Get(zone1)
	require.NoError(t, err)
	assert.Equal(t, models.ZoneOn, snap.Status.State)

	require.NoError(t, svc.Refresh(ctx))
	assert.Equal(t, int32(2), remote.listCalls.Load(), "no bootstrap once zones are known")
}

func TestSync_UnknownZonesIgnored(t *testing.T) {
	zones := newRegistry("zone1", "zone2")
	remote := &fakeRemote{statuses: map[models.ZoneID]models.ZoneStatus{
		"zone1": status(models.ZoneOff),
		"z9":    status(models.ZoneOn),
	}}
	svc := NewSyncService(zones, remote, remote, nil, logger.Nop())

	require.NoError(t, svc.Refresh(context.Background()))

	assert.Equal(t, 2, zones.Len())
	_, err := zones.Get("z9")
	assert.ErrorIs(t, err, ErrZoneNotFound)

	snap, err := zones.Get("zone2")
	require.NoError(t, err)
	assert.Equal(t, models.ZoneUnknown, snap.Status.State, "zones missing from the payload keep their last status")
}

func TestSync_FailureKeepsStaleStatus(t *testing.T) {
	zones := newRegistry(zone1)
	events := &fakeEventRepo{}
	remote := &fakeRemote{statuses: map[models.ZoneID]models.ZoneStatus{zone1: status(models.ZoneOn)}}
	svc := NewSyncService(zones, remote, remote, events, logger.Nop())
	ctx := context.Background()

	require.NoError(t, svc.Refresh(ctx))

	remote.set(func(r *fakeRemote) { r.statusErr = errBoom })
	assert.ErrorIs(t, svc.Refresh(ctx), ErrSyncFailure)
	assert.ErrorIs(t, svc.Refresh(ctx), ErrSyncFailure)

	snap, err := zones.Get(zone1)
	require.NoError(t, err)
	assert.Equal(t, models.ZoneOn, snap.Status.State)
	assert.Equal(t, []string{models.EventSyncFailed}, events.types(), "only the first failure is audited")

	remote.set(func(r *fakeRemote) { r.statusErr = nil })
	require.NoError(t, svc.Refresh(ctx))

	remote.set(func(r *fakeRemote) { r.statusErr = errBoom })
	assert.ErrorIs(t, svc.Refresh(ctx), ErrSyncFailure)
	assert.Len(t, events.types(), 2, "a recovered sync audits the next failure again")
}

func TestSync_ConcurrentRefreshesCoalesce(t *testing.T) {
	zones := newRegistry(zone1)
	release := make(chan struct{})
	remote := &fakeRemote{
		statuses: map[models.ZoneID]models.ZoneStatus{zone1: status(models.ZoneOn)},
		release:  release,
	}
	svc := NewSyncService(zones, remote, remote, nil, logger.Nop())

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Refresh(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return remote.statusCalls.Load() == 1 }, time.Second, time.Millisecond)
	// give the remaining callers time to join the in-flight fetch
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), remote.statusCalls.Load())
}

func TestSync_CallerCancellationDoesNotAbortSharedFetch(t *testing.T) {
	zones := newRegistry(zone1)
	release := make(chan struct{})
	remote := &fakeRemote{
		statuses: map[models.ZoneID]models.ZoneStatus{zone1: status(models.ZoneOn)},
		release:  release,
	}
	svc := NewSyncService(zones, remote, remote, nil, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Refresh(ctx) }()
	require.Eventually(t, func() bool { return remote.statusCalls.Load() == 1 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		snap, err := zones.Get(zone1)
		return err == nil && snap.Status.State == models.ZoneOn
	}, time.Second, time.Millisecond)
}

func TestSync_RefreshNeverTouchesOverrides(t *testing.T) {
	ids := []models.ZoneID{"zone1", "zone2", "zone3", "zone4"}
	zones := newRegistry(ids...)
	remote := &fakeRemote{}
	svc := NewSyncService(zones, remote, remote, nil, logger.Nop())

	rng := rand.New(rand.NewSource(42))
	phases := []models.OverridePhase{models.PhaseIdle, models.PhaseAwaitingReadiness, models.PhaseArmed}
	want := make(map[models.ZoneID]models.OverrideRequest, len(ids))
	for _, id := range ids {
		req := models.OverrideRequest{
			Phase:      phases[rng.Intn(len(phases))],
			Duration:   rng.Intn(61),
			Armed:      rng.Intn(2) == 0,
			Pending:    rng.Intn(2) == 0,
			Generation: uint64(rng.Intn(100)),
		}
		zones.ApplyOverride(id, req)
		want[id] = req
	}

	states := []models.ZoneState{models.ZoneOn, models.ZoneOff, models.ZoneUnknown}
	for round := 0; round < 50; round++ {
		statuses := make(map[models.ZoneID]models.ZoneStatus)
		for _, id := range append(ids, "z9") {
			if rng.Intn(3) == 0 {
				continue
			}
			statuses[id] = status(states[rng.Intn(len(states))])
		}
		remote.set(func(r *fakeRemote) { r.statuses = statuses })
		require.NoError(t, svc.Refresh(context.Background()))

		for _, id := range ids {
			snap, err := zones.Get(id)
			require.NoError(t, err)
			require.Equal(t, want[id], snap.Override, "round %d zone %s", round, id)
			if st, ok := statuses[id]; ok {
				require.Equal(t, st, snap.Status)
			}
		}
	}
}
