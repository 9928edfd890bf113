package api

import (
	"errors"
	"net/http"

	"github.com/okian/matchday/internal/adapters/repository"
	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/domain/live"
	"github.com/okian/matchday/internal/domain/matchmaking"
	"github.com/okian/matchday/internal/domain/simulation"
	"github.com/okian/matchday/internal/domain/strength"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Error is an API failure tagged with the operation and a kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap tags err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind returns an error of kind for op with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// classify maps an error to an HTTP status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, live.ErrUnauthorizedParticipant):
		return http.StatusForbidden, "not_a_participant"
	case errors.Is(err, live.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, simulation.ErrOpponentNotFound):
		return http.StatusNotFound, "opponent_not_found"
	case errors.Is(err, repository.ErrClubNotFound):
		return http.StatusNotFound, "club_not_found"
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, simulation.ErrOpponentHasNoLineup):
		return http.StatusBadRequest, "opponent_has_no_lineup"
	case errors.Is(err, simulation.ErrIncompleteLineup), errors.Is(err, strength.ErrInsufficientRoster):
		return http.StatusBadRequest, "insufficient_roster"
	case errors.Is(err, simulation.ErrSelfMatch):
		return http.StatusBadRequest, "self_match"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, simulation.ErrUnknownMode),
		errors.Is(err, service.ErrInvalidChallengeMode),
		errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, live.ErrInvalidParticipants),
		errors.Is(err, matchmaking.ErrInvalidStage):
		return http.StatusBadRequest, "bad_request"
	}
	return http.StatusInternalServerError, "internal_error"
}
