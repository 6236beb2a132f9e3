package service

import (
	"context"
	"testing"

	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleService_UpcomingFetchesOnce(t *testing.T) {
	remote := &fakeRemote{schedule: []models.ScheduleEvent{
		{EventID: "e1", ZoneID: zone1, StartTime: "06:00", StopTime: "06:10", Duration: 10, Active: true},
		{EventID: "e2", ZoneID: "z9", StartTime: "06:00", StopTime: "06:05", Duration: 5},
	}}
	svc := NewScheduleService(remote, newRegistry(zone1), logger.Nop())
	ctx := context.Background()

	got, err := svc.Upcoming(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2, "events for unknown zones are kept for display")

	_, err = svc.Upcoming(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), remote.schedCalls.Load())

	got[0].EventID = "mutated"
	again, err := svc.Upcoming(ctx)
	require.NoError(t, err)
	assert.Equal(t, "e1", again[0].EventID, "callers get a copy")
}

func TestScheduleService_RefreshFailureKeepsCache(t *testing.T) {
	remote := &fakeRemote{schedule: []models.ScheduleEvent{{EventID: "e1", ZoneID: zone1}}}
	svc := NewScheduleService(remote, newRegistry(zone1), logger.Nop())
	ctx := context.Background()

	require.NoError(t, svc.Refresh(ctx))

	remote.set(func(r *fakeRemote) { r.schedErr = errBoom })
	assert.ErrorIs(t, svc.Refresh(ctx), ErrSyncFailure)

	got, err := svc.Upcoming(ctx)
	require.NoError(t, err)
	assert.Equal(t, "e1", got[0].EventID)
}

func TestScheduleService_EmptyCacheFetchError(t *testing.T) {
	remote := &fakeRemote{schedErr: errBoom}
	svc := NewScheduleService(remote, newRegistry(), logger.Nop())

	_, err := svc.Upcoming(context.Background())
	assert.ErrorIs(t, err, ErrSyncFailure)
}
