package store

// Record is the full persisted state for one installation/token. The file on
// disk holds exactly one JSON-encoded Record.
type Record struct {
	DistinctID  string           `json:"distinct_id,omitempty"`
	Alias       string           `json:"alias,omitempty"`
	EventTimers map[string]int64 `json:"event_timers"`
	Properties  map[string]any   `json:"properties"`
	ExpiresAt   int64            `json:"store_expires_at,omitempty"`
}

func defaultRecord() *Record {
	return &Record{
		EventTimers: make(map[string]int64),
		Properties:  make(map[string]any),
	}
}

func (r *Record) clone() *Record {
	out := &Record{
		DistinctID:  r.DistinctID,
		Alias:       r.Alias,
		EventTimers: make(map[string]int64, len(r.EventTimers)),
		Properties:  make(map[string]any, len(r.Properties)),
		ExpiresAt:   r.ExpiresAt,
	}
	for k, v := range r.EventTimers {
		out.EventTimers[k] = v
	}
	for k, v := range r.Properties {
		out.Properties[k] = v
	}
	return out
}

func (r *Record) expired(nowMillis int64) bool {
	return r.ExpiresAt != 0 && nowMillis >= r.ExpiresAt
}
