package mixtrack

import (
	"context"
	"net/http"
)

// Groups is the group-profile surface. Group updates carry the group key and
// id explicitly, so unlike People they have no identify precondition.
type Groups struct {
	client *Client
}

func (g *Groups) send(ctx context.Context, action, groupKey, groupID string, value any, mods *Modifiers) error {
	data := map[string]any{
		"$token":     g.client.conf.Token,
		"$group_key": groupKey,
		"$group_id":  groupID,
		action:       value,
	}
	mods.apply(data)

	return g.client.api.Send(ctx, http.MethodGet, "/groups", data)
}

// Set writes group profile properties, overwriting existing values.
func (g *Groups) Set(ctx context.Context, groupKey, groupID string, props map[string]any, mods *Modifiers) error {
	filtered := filterReserved(props)
	if len(filtered) == 0 {
		return nil
	}
	return g.send(ctx, setAction, groupKey, groupID, filtered, mods)
}

// SetOnce writes group profile properties only where no value exists yet.
func (g *Groups) SetOnce(ctx context.Context, groupKey, groupID string, props map[string]any, mods *Modifiers) error {
	filtered := filterReserved(props)
	if len(filtered) == 0 {
		return nil
	}
	return g.send(ctx, setOnceAction, groupKey, groupID, filtered, mods)
}

// Unset removes the named properties from the group profile.
func (g *Groups) Unset(ctx context.Context, groupKey, groupID string, keys []string, mods *Modifiers) error {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !isReservedProperty(k) {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return g.send(ctx, unsetAction, groupKey, groupID, out, mods)
}

// Remove deletes values from list-valued group profile properties.
func (g *Groups) Remove(ctx context.Context, groupKey, groupID string, props map[string]any, mods *Modifiers) error {
	filtered := filterReserved(props)
	if len(filtered) == 0 {
		return nil
	}
	return g.send(ctx, removeAction, groupKey, groupID, filtered, mods)
}

// Union merges values into list-valued group profile properties. Scalars are
// wrapped into one-element lists.
func (g *Groups) Union(ctx context.Context, groupKey, groupID string, props map[string]any, mods *Modifiers) error {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if isReservedProperty(k) {
			continue
		}
		out[k] = asArray(v)
	}
	if len(out) == 0 {
		return nil
	}
	return g.send(ctx, unionAction, groupKey, groupID, out, mods)
}

// DeleteGroup permanently removes the group profile.
func (g *Groups) DeleteGroup(ctx context.Context, groupKey, groupID string, mods *Modifiers) error {
	return g.send(ctx, deleteAction, groupKey, groupID, "", mods)
}
