package mixtrack

import (
	"context"
	"fmt"
	"reflect"
)

// SetGroup replaces the user's membership list for groupKey with groupIDs and
// mirrors it onto the people profile. groupIDs may be a scalar or a slice of
// scalars.
func (c *Client) SetGroup(ctx context.Context, groupKey string, groupIDs any, opts RegisterOptions) error {
	ids, err := groupIDList(groupIDs)
	if err != nil {
		return err
	}

	c.Register(map[string]any{groupKey: ids}, opts)

	return c.People.Set(ctx, map[string]any{groupKey: ids}, nil)
}

// AddGroup adds one group id to the user's membership list for groupKey and
// unions it onto the people profile.
func (c *Client) AddGroup(ctx context.Context, groupKey string, groupID any, opts RegisterOptions) error {
	if err := validateGroupID(groupID); err != nil {
		return err
	}

	current := currentGroupList(c, groupKey)
	if !containsGroupID(current, groupID) {
		current = append(current, groupID)
		c.Register(map[string]any{groupKey: current}, opts)
	}

	return c.People.Union(ctx, map[string]any{groupKey: []any{groupID}}, nil)
}

// RemoveGroup removes one group id from the user's membership list for
// groupKey. The people profile is only updated when the local list actually
// changed.
func (c *Client) RemoveGroup(ctx context.Context, groupKey string, groupID any, opts RegisterOptions) error {
	if err := validateGroupID(groupID); err != nil {
		return err
	}

	current := currentGroupList(c, groupKey)
	remaining := make([]any, 0, len(current))
	for _, id := range current {
		if !sameGroupID(id, groupID) {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == len(current) {
		return nil
	}

	if len(remaining) == 0 {
		c.Unregister(groupKey, opts)
	} else {
		c.Register(map[string]any{groupKey: remaining}, opts)
	}

	return c.People.Remove(ctx, map[string]any{groupKey: groupID}, nil)
}

func groupIDList(groupIDs any) ([]any, error) {
	rv := reflect.ValueOf(groupIDs)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i).Interface()
			if err := validateGroupID(elem); err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	}
	if err := validateGroupID(groupIDs); err != nil {
		return nil, err
	}
	return []any{groupIDs}, nil
}

func validateGroupID(id any) error {
	if _, ok := id.(string); ok {
		return nil
	}
	if isNumber(id) {
		return nil
	}
	return fmt.Errorf("%w: group id must be a string or a number, got %T", ErrInvalidProperties, id)
}

func currentGroupList(c *Client, groupKey string) []any {
	v, ok := c.GetProperty(groupKey)
	if !ok {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	return nil
}

func containsGroupID(list []any, id any) bool {
	for _, existing := range list {
		if sameGroupID(existing, id) {
			return true
		}
	}
	return false
}

// sameGroupID compares ids loosely: a list reloaded from the JSON file holds
// float64 numbers, while fresh calls may pass ints.
func sameGroupID(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		return toFloat(a) == toFloat(b)
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	return aok && bok && as == bs
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
