package mixtrack

import (
	"context"
	"fmt"
	"net/http"
	"reflect"

	json "github.com/goccy/go-json"

	"mixtrack/internal/providers"
)

const (
	setAction     = "$set"
	setOnceAction = "$set_once"
	unsetAction   = "$unset"
	addAction     = "$add"
	appendAction  = "$append"
	removeAction  = "$remove"
	unionAction   = "$union"
	deleteAction  = "$delete"
)

// reservedProperties are identity bookkeeping keys that callers may never set
// through the profile surface.
var reservedProperties = map[string]struct{}{
	"$distinct_id":               {},
	"$token":                     {},
	"$device_id":                 {},
	"$user_id":                   {},
	"$had_persisted_distinct_id": {},
}

func isReservedProperty(key string) bool {
	_, ok := reservedProperties[key]
	return ok
}

func filterReserved(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if isReservedProperty(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// People is the user-profile surface. Every operation requires Identify to
// have been called; pre-identify calls are dropped with a log line rather
// than queued.
type People struct {
	client *Client
}

func (p *People) send(ctx context.Context, action string, value any, mods *Modifiers) error {
	if !p.client.identified() {
		p.client.logger.Warnf(providers.TypeEngage, "Identify must be called before profile updates, dropping %s", action)
		return nil
	}

	distinctID, ok := p.client.store.DistinctID()
	if !ok {
		return ErrNoDistinctID
	}

	data := map[string]any{
		"$token":       p.client.conf.Token,
		"$distinct_id": distinctID,
		action:         value,
	}
	mods.apply(data)

	return p.client.api.Send(ctx, http.MethodGet, "/engage", data)
}

// Set writes profile properties, overwriting existing values.
func (p *People) Set(ctx context.Context, props map[string]any, mods *Modifiers) error {
	filtered := filterReserved(props)
	if len(filtered) == 0 {
		return nil
	}
	return p.send(ctx, setAction, filtered, mods)
}

// SetProperty is the single key/value shorthand for Set.
func (p *People) SetProperty(ctx context.Context, key string, value any, mods *Modifiers) error {
	if isReservedProperty(key) {
		return nil
	}
	return p.send(ctx, setAction, map[string]any{key: value}, mods)
}

// SetOnce writes profile properties only where no value exists yet.
func (p *People) SetOnce(ctx context.Context, props map[string]any, mods *Modifiers) error {
	filtered := filterReserved(props)
	if len(filtered) == 0 {
		return nil
	}
	return p.send(ctx, setOnceAction, filtered, mods)
}

// Unset removes the named properties from the profile.
func (p *People) Unset(ctx context.Context, keys []string, mods *Modifiers) error {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !isReservedProperty(k) {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return p.send(ctx, unsetAction, out, mods)
}

// Increment adds the given deltas to numeric profile properties. Any
// non-numeric value aborts the whole call before anything is sent.
func (p *People) Increment(ctx context.Context, props map[string]any, mods *Modifiers) error {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if isReservedProperty(k) {
			continue
		}
		if !isNumber(v) {
			return fmt.Errorf("%w: increment value for key %q must be numeric", ErrInvalidProperties, k)
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return p.send(ctx, addAction, out, mods)
}

// IncrementBy is the single-key shorthand for Increment.
func (p *People) IncrementBy(ctx context.Context, key string, amount float64, mods *Modifiers) error {
	if isReservedProperty(key) {
		return nil
	}
	return p.send(ctx, addAction, map[string]any{key: amount}, mods)
}

// Append pushes values onto list-valued profile properties.
func (p *People) Append(ctx context.Context, props map[string]any, mods *Modifiers) error {
	filtered := filterReserved(props)
	if len(filtered) == 0 {
		return nil
	}
	return p.send(ctx, appendAction, filtered, mods)
}

// AppendTo is the single key/value shorthand for Append.
func (p *People) AppendTo(ctx context.Context, key string, value any, mods *Modifiers) error {
	if isReservedProperty(key) {
		return nil
	}
	return p.send(ctx, appendAction, map[string]any{key: value}, mods)
}

// Remove deletes values from list-valued profile properties.
func (p *People) Remove(ctx context.Context, props map[string]any, mods *Modifiers) error {
	filtered := filterReserved(props)
	if len(filtered) == 0 {
		return nil
	}
	return p.send(ctx, removeAction, filtered, mods)
}

// RemoveFrom is the single key/value shorthand for Remove.
func (p *People) RemoveFrom(ctx context.Context, key string, value any, mods *Modifiers) error {
	if isReservedProperty(key) {
		return nil
	}
	return p.send(ctx, removeAction, map[string]any{key: value}, mods)
}

// Union merges values into list-valued profile properties, skipping
// duplicates server-side. Scalar values are wrapped into one-element lists.
func (p *People) Union(ctx context.Context, props map[string]any, mods *Modifiers) error {
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
	return p.send(ctx, unionAction, out, mods)
}

// UnionWith is the single key shorthand for Union.
func (p *People) UnionWith(ctx context.Context, key string, values any, mods *Modifiers) error {
	if isReservedProperty(key) {
		return nil
	}
	return p.send(ctx, unionAction, map[string]any{key: asArray(values)}, mods)
}

// TrackCharge appends a $transactions entry with the given amount to the
// profile's revenue history.
func (p *People) TrackCharge(ctx context.Context, amount float64, props map[string]any, mods *Modifiers) error {
	charge := make(map[string]any, len(props)+1)
	for k, v := range props {
		charge[k] = v
	}
	charge["$amount"] = amount

	return p.send(ctx, appendAction, map[string]any{"$transactions": charge}, mods)
}

// ClearCharges empties the profile's revenue history.
func (p *People) ClearCharges(ctx context.Context, mods *Modifiers) error {
	return p.send(ctx, setAction, map[string]any{"$transactions": []any{}}, mods)
}

// DeleteUser permanently removes the profile.
func (p *People) DeleteUser(ctx context.Context, mods *Modifiers) error {
	return p.send(ctx, deleteAction, "", mods)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	default:
		return false
	}
}

// asArray leaves slices alone and wraps anything else into a one-element
// slice.
func asArray(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}
