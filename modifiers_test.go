package mixtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureTimestamp(t *testing.T) {
	assert.Equal(t, int64(1234567890), ensureTimestamp(1234567890))
	assert.Equal(t, int64(1234567890), ensureTimestamp(1234567890123))
	assert.Equal(t, int64(0), ensureTimestamp(0))
}

func TestModifiers_ApplyAll(t *testing.T) {
	ip := "1.2.3.4"
	ignoreTime := true
	ts := int64(1234567890)
	ignoreAlias := true
	lat, lon := 40.7127753, -74.0059728

	data := map[string]any{"existing": "value"}
	m := &Modifiers{
		IP:          &ip,
		IgnoreTime:  &ignoreTime,
		Time:        &ts,
		IgnoreAlias: &ignoreAlias,
		Latitude:    &lat,
		Longitude:   &lon,
	}
	m.apply(data)

	assert.Equal(t, "value", data["existing"])
	assert.Equal(t, "1.2.3.4", data["$ip"])
	assert.Equal(t, true, data["$ignore_time"])
	assert.Equal(t, int64(1234567890), data["$time"])
	assert.Equal(t, true, data["$ignore_alias"])
	assert.Equal(t, lat, data["$latitude"])
	assert.Equal(t, lon, data["$longitude"])
}

func TestModifiers_TimeNormalized(t *testing.T) {
	ts := int64(1234567890123)
	data := map[string]any{}
	(&Modifiers{Time: &ts}).apply(data)

	assert.Equal(t, int64(1234567890), data["$time"])
}

func TestModifiers_LoneCoordinateDropped(t *testing.T) {
	lat := 40.7127753
	data := map[string]any{}
	(&Modifiers{Latitude: &lat}).apply(data)
	assert.Empty(t, data)

	lon := -74.0059728
	data = map[string]any{}
	(&Modifiers{Longitude: &lon}).apply(data)
	assert.Empty(t, data)
}

func TestModifiers_NilIsNoop(t *testing.T) {
	data := map[string]any{"existing": "value"}
	var m *Modifiers
	m.apply(data)

	assert.Equal(t, map[string]any{"existing": "value"}, data)
}
