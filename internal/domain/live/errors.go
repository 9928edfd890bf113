package live

import "errors"

var (
	// ErrSessionNotFound is returned for an unknown match id.
	ErrSessionNotFound = errors.New("live session not found")
	// ErrUnauthorizedParticipant is returned when the caller is not one of the two participants.
	ErrUnauthorizedParticipant = errors.New("caller is not a participant of this match")
	// ErrInvalidParticipants is returned by Register for empty or identical participants.
	ErrInvalidParticipants = errors.New("a live session needs two distinct participants")
)
