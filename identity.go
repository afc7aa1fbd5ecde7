package mixtrack

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"mixtrack/internal/providers"
)

// Identify switches the current identity to newID and emits an $identify
// event linking it to the previous anonymous id. A no-op when newID is
// already current; a logged no-op when newID carries the device prefix, since
// caller-supplied ids must never look anonymous.
func (c *Client) Identify(ctx context.Context, newID string) error {
	oldID, hadOld := c.store.DistinctID()
	if hadOld && oldID == newID {
		return nil
	}

	if strings.HasPrefix(newID, devicePrefix) {
		c.logger.Errorf(providers.TypeApp, "distinct_id cannot have %s prefix", devicePrefix)
		return nil
	}

	if alias, ok := c.store.Alias(); ok && alias != newID {
		c.store.SetAlias("")
	}

	c.store.Register(map[string]any{
		"$user_id":    newID,
		"distinct_id": newID,
	}, nil)

	if _, hasDevice := c.store.Property("$device_id"); !hasDevice && hadOld {
		c.store.RegisterOnce(map[string]any{
			"$device_id":                 oldID,
			"$had_persisted_distinct_id": true,
		}, nil, nil)
	}

	c.store.SetDistinctID(newID)

	if hadOld {
		return c.sendEvent(ctx, Event{
			Event: "$identify",
			Properties: map[string]any{
				"distinct_id":       newID,
				"$anon_distinct_id": oldID,
			},
		})
	}
	return nil
}

// Alias links a new id to an existing one. An empty original defaults to the
// current distinct_id. Aliasing an id onto itself skips the remote call and
// only identifies; aliasing onto an id that already owns a people profile is
// rejected.
func (c *Client) Alias(ctx context.Context, alias string, original string) error {
	if original == "" {
		id, ok := c.store.DistinctID()
		if !ok {
			return ErrNoDistinctID
		}
		original = id
	}

	if alias == original {
		c.logger.Infof(providers.TypeApp, "alias matches current distinct_id, skipping remote call")
		return c.Identify(ctx, alias)
	}

	if v, ok := c.store.Property("$people_distinct_id"); ok {
		if existing, err := cast.ToStringE(v); err == nil && existing == alias {
			return fmt.Errorf("%w: %q", ErrAliasExists, alias)
		}
	}

	c.store.SetAlias(alias)

	if err := c.sendEvent(ctx, Event{
		Event: "$create_alias",
		Properties: map[string]any{
			"alias":       alias,
			"distinct_id": original,
		},
	}); err != nil {
		return err
	}

	return c.Identify(ctx, alias)
}

// Reset wipes the persisted record and the overlay and re-seeds a fresh
// anonymous device identity. Purely local.
func (c *Client) Reset() {
	c.store.Clear()
	c.overlay.Clear()

	id := c.deviceID()
	c.store.RegisterOnce(map[string]any{
		"$device_id":  id,
		"distinct_id": devicePrefix + id,
	}, nil, nil)
	if _, ok := c.store.DistinctID(); !ok {
		c.store.SetDistinctID(devicePrefix + id)
	}
}
