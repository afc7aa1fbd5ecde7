package mixtrack

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixtrack/internal/testutil"
)

// identifiedClient returns a client already identified as u1, with the
// sender history cleared.
func identifiedClient(t *testing.T) (*Client, *testutil.MockSender) {
	t.Helper()
	c, sender, _ := newTestClient(t)
	require.NoError(t, c.Identify(context.Background(), "u1"))
	sender.Reset()
	return c, sender
}

func TestPeople_DroppedBeforeIdentify(t *testing.T) {
	c, sender, logger := newTestClient(t)

	err := c.People.Set(context.Background(), map[string]any{"name": "Ada"}, nil)
	require.NoError(t, err)
	assert.Zero(t, sender.CallCount())
	assert.NotEmpty(t, logger.MessagesAt("warn"))
}

func TestPeople_SetPayload(t *testing.T) {
	c, sender := identifiedClient(t)

	err := c.People.Set(context.Background(), map[string]any{
		"name":       "Ada",
		"$device_id": "spoofed",
	}, nil)
	require.NoError(t, err)

	call, ok := sender.LastCall()
	require.True(t, ok)
	assert.Equal(t, http.MethodGet, call.Method)
	assert.Equal(t, "/engage", call.Endpoint)

	data := call.Payload.(map[string]any)
	assert.Equal(t, "test-token", data["$token"])
	assert.Equal(t, "u1", data["$distinct_id"])

	set := data[setAction].(map[string]any)
	assert.Equal(t, "Ada", set["name"])
	_, hasReserved := set["$device_id"]
	assert.False(t, hasReserved, "reserved keys are filtered out")
}

func TestPeople_SetAllReservedSendsNothing(t *testing.T) {
	c, sender := identifiedClient(t)

	err := c.People.Set(context.Background(), map[string]any{"$token": "x", "$user_id": "y"}, nil)
	require.NoError(t, err)
	assert.Zero(t, sender.CallCount())
}

func TestPeople_SetProperty(t *testing.T) {
	c, sender := identifiedClient(t)

	require.NoError(t, c.People.SetProperty(context.Background(), "name", "Ada", nil))

	data := sender.Calls[0].Payload.(map[string]any)
	set := data[setAction].(map[string]any)
	assert.Equal(t, "Ada", set["name"])
}

func TestPeople_SetOnce(t *testing.T) {
	c, sender := identifiedClient(t)

	require.NoError(t, c.People.SetOnce(context.Background(), map[string]any{"first_seen": "2026-01-01"}, nil))

	data := sender.Calls[0].Payload.(map[string]any)
	_, hasSetOnce := data[setOnceAction]
	assert.True(t, hasSetOnce)
}

func TestPeople_Unset(t *testing.T) {
	c, sender := identifiedClient(t)

	require.NoError(t, c.People.Unset(context.Background(), []string{"name", "$token"}, nil))

	data := sender.Calls[0].Payload.(map[string]any)
	keys := data[unsetAction].([]string)
	assert.Equal(t, []string{"name"}, keys)
}

func TestPeople_IncrementNonNumericAborts(t *testing.T) {
	c, sender := identifiedClient(t)

	err := c.People.Increment(context.Background(), map[string]any{
		"logins": 1,
		"name":   "Ada",
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidProperties)
	assert.Zero(t, sender.CallCount(), "nothing is sent on a partial failure")
}

func TestPeople_Increment(t *testing.T) {
	c, sender := identifiedClient(t)

	require.NoError(t, c.People.Increment(context.Background(), map[string]any{"logins": 2}, nil))

	data := sender.Calls[0].Payload.(map[string]any)
	add := data[addAction].(map[string]any)
	assert.Equal(t, 2, add["logins"])
}

func TestPeople_IncrementBy(t *testing.T) {
	c, sender := identifiedClient(t)

	require.NoError(t, c.People.IncrementBy(context.Background(), "credits", -5, nil))

	data := sender.Calls[0].Payload.(map[string]any)
	add := data[addAction].(map[string]any)
	assert.Equal(t, float64(-5), add["credits"])
}

func TestPeople_UnionWrapsScalar(t *testing.T) {
	c, sender := identifiedClient(t)

	require.NoError(t, c.People.Union(context.Background(), map[string]any{"browsers": "firefox"}, nil))

	data := sender.Calls[0].Payload.(map[string]any)
	union := data[unionAction].(map[string]any)
	assert.Equal(t, []any{"firefox"}, union["browsers"])
}

func TestPeople_UnionKeepsList(t *testing.T) {
	c, sender := identifiedClient(t)

	require.NoError(t, c.People.Union(context.Background(), map[string]any{
		"browsers": []string{"firefox", "chrome"},
	}, nil))

	data := sender.Calls[0].Payload.(map[string]any)
	union := data[unionAction].(map[string]any)
	assert.Equal(t, []any{"firefox", "chrome"}, union["browsers"])
}

func TestPeople_AppendAndRemove(t *testing.T) {
	c, sender := identifiedClient(t)

	require.NoError(t, c.People.AppendTo(context.Background(), "items", "sword", nil))
	require.NoError(t, c.People.RemoveFrom(context.Background(), "items", "shield", nil))

	appendData := sender.Calls[0].Payload.(map[string]any)
	assert.Equal(t, map[string]any{"items": "sword"}, appendData[appendAction])

	removeData := sender.Calls[1].Payload.(map[string]any)
	assert.Equal(t, map[string]any{"items": "shield"}, removeData[removeAction])
}

func TestPeople_TrackCharge(t *testing.T) {
	c, sender := identifiedClient(t)

	require.NoError(t, c.People.TrackCharge(context.Background(), 49.99, map[string]any{"item": "Premium"}, nil))

	data := sender.Calls[0].Payload.(map[string]any)
	appended := data[appendAction].(map[string]any)
	charge := appended["$transactions"].(map[string]any)
	assert.Equal(t, 49.99, charge["$amount"])
	assert.Equal(t, "Premium", charge["item"])
}

func TestPeople_ClearCharges(t *testing.T) {
	c, sender := identifiedClient(t)

	require.NoError(t, c.People.ClearCharges(context.Background(), nil))

	data := sender.Calls[0].Payload.(map[string]any)
	set := data[setAction].(map[string]any)
	assert.Equal(t, []any{}, set["$transactions"])
}

func TestPeople_DeleteUser(t *testing.T) {
	c, sender := identifiedClient(t)

	require.NoError(t, c.People.DeleteUser(context.Background(), nil))

	data := sender.Calls[0].Payload.(map[string]any)
	assert.Equal(t, "", data[deleteAction])
}

func TestPeople_Modifiers(t *testing.T) {
	c, sender := identifiedClient(t)

	ip := "1.2.3.4"
	ignoreTime := true
	require.NoError(t, c.People.Set(context.Background(), map[string]any{"name": "Ada"}, &Modifiers{
		IP:         &ip,
		IgnoreTime: &ignoreTime,
	}))

	data := sender.Calls[0].Payload.(map[string]any)
	assert.Equal(t, "1.2.3.4", data["$ip"])
	assert.Equal(t, true, data["$ignore_time"])
}

func TestPeople_LoneLatitudeDropped(t *testing.T) {
	c, sender := identifiedClient(t)

	lat := 40.7127753
	require.NoError(t, c.People.Set(context.Background(), map[string]any{"name": "Ada"}, &Modifiers{
		Latitude: &lat,
	}))

	data := sender.Calls[0].Payload.(map[string]any)
	_, hasLat := data["$latitude"]
	_, hasLon := data["$longitude"]
	assert.False(t, hasLat)
	assert.False(t, hasLon)
}
