package simulation

import "errors"

// Sentinel errors returned by Simulate.
var (
	ErrIncompleteLineup    = errors.New("requester has no complete starting eleven")
	ErrOpponentNotFound    = errors.New("opponent not found")
	ErrOpponentHasNoLineup = errors.New("opponent has no club or complete starting eleven")
	ErrSelfMatch           = errors.New("cannot play against yourself")
	ErrUnknownMode         = errors.New("unknown match mode")
)

// errMissingLineup marks a side that cannot field eleven starters.
var errMissingLineup = errors.New("missing lineup")
