package mixtrack

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrack_NoIdentity(t *testing.T) {
	c, sender, _ := newBareClient(t)

	err := c.Track(context.Background(), "Signup", nil)
	assert.ErrorIs(t, err, ErrNoDistinctID)
	assert.Zero(t, sender.CallCount())
}

func TestTrack_Payload(t *testing.T) {
	c, sender, _ := newTestClient(t)
	require.NoError(t, c.Identify(context.Background(), "u1"))
	sender.Reset()

	before := time.Now().Unix()
	err := c.Track(context.Background(), "Signup", map[string]any{"plan": "pro"})
	require.NoError(t, err)

	call, ok := sender.LastCall()
	require.True(t, ok)
	assert.Equal(t, http.MethodGet, call.Method)
	assert.Equal(t, "/track", call.Endpoint)

	ev := call.Payload.(Event)
	assert.Equal(t, "Signup", ev.Event)
	assert.Equal(t, "u1", ev.Properties["distinct_id"])
	assert.Equal(t, "pro", ev.Properties["plan"])
	assert.Equal(t, "test-token", ev.Properties["token"])
	assert.Equal(t, libName, ev.Properties["mp_lib"])
	assert.Equal(t, Version, ev.Properties["$lib_version"])

	ts, ok := ev.Properties["time"].(int64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, ts, before)
	assert.LessOrEqual(t, ts, time.Now().Unix())
}

func TestTrack_MergePrecedence(t *testing.T) {
	c, sender, _ := newTestClient(t)
	require.NoError(t, c.Identify(context.Background(), "u1"))
	sender.Reset()

	c.Register(map[string]any{"source": "disk", "keep": "persisted"}, RegisterOptions{Persistent: true})
	c.Register(map[string]any{"source": "memory"}, RegisterOptions{Persistent: false})

	err := c.Track(context.Background(), "Signup", map[string]any{"source": "call"})
	require.NoError(t, err)

	ev := sender.Calls[len(sender.Calls)-1].Payload.(Event)
	assert.Equal(t, "call", ev.Properties["source"], "call props override both layers")
	assert.Equal(t, "persisted", ev.Properties["keep"], "unshadowed persisted props survive")
}

func TestTrack_OverlayOverridesPersisted(t *testing.T) {
	c, sender, _ := newTestClient(t)
	require.NoError(t, c.Identify(context.Background(), "u1"))
	sender.Reset()

	c.Register(map[string]any{"source": "disk"}, RegisterOptions{Persistent: true})
	c.Register(map[string]any{"source": "memory"}, RegisterOptions{Persistent: false})

	require.NoError(t, c.Track(context.Background(), "Signup", nil))

	ev := sender.Calls[len(sender.Calls)-1].Payload.(Event)
	assert.Equal(t, "memory", ev.Properties["source"])
}

func TestTrack_DistinctIDForced(t *testing.T) {
	c, sender, _ := newTestClient(t)
	require.NoError(t, c.Identify(context.Background(), "u1"))
	sender.Reset()

	err := c.Track(context.Background(), "Signup", map[string]any{"distinct_id": "spoofed"})
	require.NoError(t, err)

	ev := sender.Calls[len(sender.Calls)-1].Payload.(Event)
	assert.Equal(t, "u1", ev.Properties["distinct_id"])
}

func TestTrack_Duration(t *testing.T) {
	c, sender, _ := newTestClient(t)
	require.NoError(t, c.Identify(context.Background(), "u1"))
	sender.Reset()

	c.TimeEvent("Upload")
	time.Sleep(25 * time.Millisecond)

	require.NoError(t, c.Track(context.Background(), "Upload", nil))

	ev := sender.Calls[len(sender.Calls)-1].Payload.(Event)
	duration, ok := ev.Properties["$duration"].(float64)
	require.True(t, ok, "expected a $duration property")
	assert.GreaterOrEqual(t, duration, 0.02)
	assert.Less(t, duration, 5.0)

	// Timer is consumed: the next track of the same event has no duration.
	require.NoError(t, c.Track(context.Background(), "Upload", nil))
	ev = sender.Calls[len(sender.Calls)-1].Payload.(Event)
	_, hasDuration := ev.Properties["$duration"]
	assert.False(t, hasDuration)
}

func TestTrack_FutureTimerDropsDuration(t *testing.T) {
	c, sender, logger := newTestClient(t)
	require.NoError(t, c.Identify(context.Background(), "u1"))
	sender.Reset()

	c.store.SetEventTimer("Upload", time.Now().UnixMilli()+60_000)

	require.NoError(t, c.Track(context.Background(), "Upload", nil))

	ev := sender.Calls[len(sender.Calls)-1].Payload.(Event)
	_, hasDuration := ev.Properties["$duration"]
	assert.False(t, hasDuration)
	assert.NotEmpty(t, logger.MessagesAt("warn"))

	_, stillOpen := c.store.RemoveEventTimer("Upload")
	assert.False(t, stillOpen, "timer is consumed even when duration is dropped")
}

func TestTrack_TimeCoercion(t *testing.T) {
	c, sender, _ := newTestClient(t)
	require.NoError(t, c.Identify(context.Background(), "u1"))
	sender.Reset()

	events := []Event{{
		Event:      "Import",
		Properties: map[string]any{"time": int64(1234567890123)},
	}}
	require.NoError(t, c.TrackBatch(context.Background(), events))

	chunk := sender.Calls[len(sender.Calls)-1].Payload.([]Event)
	assert.Equal(t, int64(1234567890), chunk[0].Properties["time"], "millis are normalized to seconds")
}

func TestTrackBatch_Chunks(t *testing.T) {
	c, sender, _ := newTestClient(t)

	events := make([]Event, 120)
	for i := range events {
		events[i] = Event{Event: "Bulk"}
	}

	require.NoError(t, c.TrackBatch(context.Background(), events))
	require.Equal(t, 3, sender.CallCount())

	sizes := make([]int, 0, 3)
	for _, call := range sender.Calls {
		assert.Equal(t, http.MethodPost, call.Method)
		assert.Equal(t, "/track", call.Endpoint)
		chunk := call.Payload.([]Event)
		sizes = append(sizes, len(chunk))
		assert.Equal(t, "test-token", chunk[0].Properties["token"])
	}
	assert.Equal(t, []int{50, 50, 20}, sizes)
}
