package mixtrack

import "errors"

var (
	// ErrNoDistinctID is returned by operations that require a resolved
	// identity before any exists.
	ErrNoDistinctID = errors.New("no distinct_id set, call Identify or Alias first")

	// ErrAliasExists is returned when an alias would collide with an id that
	// already owns a people profile.
	ErrAliasExists = errors.New("alias already belongs to an existing people profile")

	// ErrInvalidProperties is returned when a caller passes a value of the
	// wrong shape, such as a non-numeric increment or a non-scalar group id.
	ErrInvalidProperties = errors.New("invalid properties")
)
