package structs

import "errors"

var (
	// ErrInvalidState is returned when entities from different guilds are
	// combined in one query. This is a programmer error, not a gateway
	// anomaly.
	ErrInvalidState = errors.New("member and channel belong to different guilds")

	// ErrReactionNotFound is returned when removing a reaction that was
	// never cached. Unlike stale update/delete events this is reported,
	// not swallowed.
	ErrReactionNotFound = errors.New("reaction not found")
)
