package mixtrack

// Modifiers are optional per-call overrides merged into a profile or group
// update payload. Nil fields are omitted from the wire format.
type Modifiers struct {
	IP          *string
	IgnoreTime  *bool
	Time        *int64
	IgnoreAlias *bool

	// Latitude and Longitude are only sent as a pair; a lone value is
	// dropped rather than sent alone.
	Latitude  *float64
	Longitude *float64
}

func (m *Modifiers) apply(data map[string]any) {
	if m == nil {
		return
	}
	if m.IP != nil {
		data["$ip"] = *m.IP
	}
	if m.IgnoreTime != nil {
		data["$ignore_time"] = *m.IgnoreTime
	}
	if m.Time != nil {
		data["$time"] = ensureTimestamp(*m.Time)
	}
	if m.IgnoreAlias != nil {
		data["$ignore_alias"] = *m.IgnoreAlias
	}
	if m.Latitude != nil && m.Longitude != nil {
		data["$latitude"] = *m.Latitude
		data["$longitude"] = *m.Longitude
	}
}

// ensureTimestamp normalizes an epoch value to seconds; values too large to
// be seconds are treated as milliseconds.
func ensureTimestamp(t int64) int64 {
	if t > 9999999999 {
		return t / 1000
	}
	return t
}
