package matchmaking

import "errors"

var (
	// ErrNotQueued is returned by TryPair when the requester is not waiting.
	ErrNotQueued = errors.New("participant is not in the matchmaking queue")
	// ErrInvalidStage is returned by Stage for an empty match id or participant.
	ErrInvalidStage = errors.New("staged match needs a match id and a participant")
)
