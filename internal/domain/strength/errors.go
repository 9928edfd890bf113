package strength

import "errors"

// ErrInsufficientRoster is returned when fewer than eleven starters are scored.
var ErrInsufficientRoster = errors.New("starting eleven requires at least 11 players")
