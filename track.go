package mixtrack

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cast"

	"mixtrack/internal/providers"
)

// Event is one tracked event as it goes over the wire.
type Event struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
}

// Mixpanel accepts at most this many events per batch request.
const maxBatchSize = 50

// Track sends one event. Properties are merged in precedence order: persisted
// super properties, then the in-memory overlay, then the per-call props, with
// distinct_id and time forced on top. An open timer for the event name is
// consumed and reported as $duration in seconds.
func (c *Client) Track(ctx context.Context, event string, props map[string]any) error {
	distinctID, ok := c.store.DistinctID()
	if !ok {
		return ErrNoDistinctID
	}

	final := c.store.Properties()
	for k, v := range c.overlay.Snapshot() {
		final[k] = v
	}
	for k, v := range props {
		final[k] = v
	}

	if start, ok := c.store.RemoveEventTimer(event); ok {
		now := time.Now().UnixMilli()
		if now >= start {
			final["$duration"] = float64(now-start) / 1000.0
		} else {
			c.logger.Warnf(providers.TypeTrack, "event timer for %q starts in the future, dropping duration", event)
		}
	}

	final["distinct_id"] = distinctID
	final["time"] = time.Now().Unix()

	return c.sendEvent(ctx, Event{Event: event, Properties: final})
}

// TrackBatch sends events via POST in chunks of at most 50. No super-property
// merge happens here; each event carries exactly what the caller supplied
// plus the library fields.
func (c *Client) TrackBatch(ctx context.Context, events []Event) error {
	for i := range events {
		if events[i].Properties == nil {
			events[i].Properties = make(map[string]any)
		}
		c.decorate(events[i].Properties)
	}

	if c.conf.API.Debug {
		c.logger.Debugf(providers.TypeTrack, "sending batch of %d events", len(events))
	}

	for start := 0; start < len(events); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(events) {
			end = len(events)
		}
		if err := c.api.Send(ctx, http.MethodPost, "/track", events[start:end]); err != nil {
			return fmt.Errorf("tracking batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

func (c *Client) sendEvent(ctx context.Context, ev Event) error {
	if ev.Properties == nil {
		ev.Properties = make(map[string]any)
	}
	c.decorate(ev.Properties)

	if c.conf.API.Debug {
		c.logger.Debugf(providers.TypeTrack, "sending event %q", ev.Event)
	}

	if err := c.api.Send(ctx, http.MethodGet, "/track", ev); err != nil {
		return fmt.Errorf("tracking event %q: %w", ev.Event, err)
	}
	return nil
}

// decorate adds the library fields every event carries and normalizes a
// caller-supplied time to epoch seconds.
func (c *Client) decorate(props map[string]any) {
	props["token"] = c.conf.Token
	props["mp_lib"] = libName
	props["$lib_version"] = Version

	if raw, ok := props["time"]; ok {
		if secs, err := cast.ToInt64E(raw); err == nil {
			props["time"] = ensureTimestamp(secs)
		}
	}
}
