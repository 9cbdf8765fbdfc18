package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/internal/models"
)

func newTestTracker(t *testing.T, ttl time.Duration) (*Tracker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewTracker(rdb, ttl), mr
}

func onlineGaugeValue(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == "social_presence_online" {
			return family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return 0
}

func TestGetUnknownUserReadsOffline(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)

	record, err := tracker.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, record.Online)
	assert.Zero(t, record.LastSeen)
}

func TestExpiredLivenessReadsOffline(t *testing.T) {
	tracker, mr := newTestTracker(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, tracker.GoOnline(ctx, "u1", "/feed"))

	record, err := tracker.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, record.Online)

	// The client vanishes without calling GoOffline; the liveness key
	// expires and the user must read as offline anyway.
	mr.FastForward(2 * time.Minute)

	record, err = tracker.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, record.Online)
	assert.NotZero(t, record.LastSeen)
}

func TestHeartbeatKeepsLivenessFresh(t *testing.T) {
	tracker, mr := newTestTracker(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, tracker.GoOnline(ctx, "u1", ""))
	mr.FastForward(30 * time.Second)
	require.NoError(t, tracker.Heartbeat(ctx, "u1"))
	mr.FastForward(40 * time.Second)

	record, err := tracker.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, record.Online)
}

func TestSweepFlipsExpiredRecords(t *testing.T) {
	tracker, mr := newTestTracker(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, tracker.GoOnline(ctx, "u1", ""))
	require.NoError(t, tracker.GoOnline(ctx, "u2", ""))
	mr.FastForward(2 * time.Minute)

	swept, err := tracker.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	for _, userID := range []string{"u1", "u2"} {
		record, err := tracker.Get(ctx, userID)
		require.NoError(t, err)
		assert.False(t, record.Online)
	}

	swept, err = tracker.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestRepeatedTransitionsKeepGaugeBalanced(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)
	ctx := context.Background()
	baseline := onlineGaugeValue(t)

	require.NoError(t, tracker.GoOnline(ctx, "u1", ""))
	require.NoError(t, tracker.GoOnline(ctx, "u1", "/feed"))
	assert.Equal(t, baseline+1, onlineGaugeValue(t))

	require.NoError(t, tracker.GoOffline(ctx, "u1"))
	require.NoError(t, tracker.GoOffline(ctx, "u1"))
	assert.Equal(t, baseline, onlineGaugeValue(t))

	require.NoError(t, tracker.GoOffline(ctx, "never-online"))
	assert.Equal(t, baseline, onlineGaugeValue(t))
}

func TestSubscribeDeliversUpdates(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)
	ctx := context.Background()

	updates := make(chan models.Presence, 4)
	unsubscribe, err := tracker.Subscribe(ctx, "u1", func(record models.Presence) {
		updates <- record
	})
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, tracker.GoOnline(ctx, "u1", "/profile"))

	select {
	case record := <-updates:
		assert.True(t, record.Online)
		assert.Equal(t, "/profile", record.Location)
	case <-time.After(2 * time.Second):
		t.Fatal("no presence update received")
	}
}
