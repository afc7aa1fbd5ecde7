package mixtrack

import (
	"time"

	"github.com/spf13/cast"
)

// RegisterOptions selects the target layer for a super-property mutation and,
// for the persistent layer, an optional expiry window in days. A nil Days
// leaves any current expiry untouched; zero clears it; a positive value
// extends it.
type RegisterOptions struct {
	Persistent bool
	Days       *int
}

func DefaultRegisterOptions() RegisterOptions {
	return RegisterOptions{Persistent: true}
}

// ParseRegisterOptions accepts the loosely typed options shapes host bindings
// pass through: nil for defaults, a bare bool as the persistent flag, or a
// map with "persistent" and "days" keys. Anything else falls back to the
// defaults.
func ParseRegisterOptions(raw any) RegisterOptions {
	opts := DefaultRegisterOptions()

	switch v := raw.(type) {
	case nil:
	case bool:
		opts.Persistent = v
	case map[string]any:
		if p, ok := v["persistent"]; ok {
			opts.Persistent = cast.ToBool(p)
		}
		if d, ok := v["days"]; ok {
			if days, err := cast.ToIntE(d); err == nil {
				opts.Days = &days
			}
		}
	}

	return opts
}

// Register merges super properties into the chosen layer.
func (c *Client) Register(props map[string]any, opts RegisterOptions) {
	if opts.Persistent {
		c.store.Register(props, opts.Days)
	} else {
		c.overlay.Register(props)
	}
}

// RegisterOnce sets each property only if it is absent, or if its current
// value equals defaultValue (when non-nil).
func (c *Client) RegisterOnce(props map[string]any, defaultValue any, opts RegisterOptions) {
	if opts.Persistent {
		c.store.RegisterOnce(props, defaultValue, opts.Days)
	} else {
		c.overlay.RegisterOnce(props, defaultValue)
	}
}

// Unregister removes a super property from the chosen layer.
func (c *Client) Unregister(key string, opts RegisterOptions) {
	if opts.Persistent {
		c.store.Unregister(key)
	} else {
		c.overlay.Unregister(key)
	}
}

// TimeEvent starts a duration timer for the named event. The next Track of
// that event carries the elapsed time as $duration and consumes the timer.
func (c *Client) TimeEvent(event string) {
	c.store.SetEventTimer(event, time.Now().UnixMilli())
}
