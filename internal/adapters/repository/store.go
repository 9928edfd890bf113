// Package repository persists users, clubs, lineups and match outcomes.
package repository

import (
	"context"

	"github.com/okian/matchday/internal/domain/model"
)

// DefaultManagerSkill is the skill of a manager with no recorded matches.
const DefaultManagerSkill = 50

// Store provides read/write access to everything the match engine consumes.
type Store interface {
	// EnsureUser creates the user with the default skill if it does not exist.
	EnsureUser(ctx context.Context, userID string) error
	UserExists(ctx context.Context, userID string) (bool, error)

	// UpsertClub creates or replaces the club owned by club.OwnerID,
	// creating the owner when needed.
	UpsertClub(ctx context.Context, club model.Club) error
	// Club returns the club of a user; ok is false when the user has none.
	Club(ctx context.Context, ownerID string) (club model.Club, ok bool, err error)

	// SetLineup replaces a club's starters. Rows are written one by one and
	// a failing row is logged and skipped; written is the number stored.
	SetLineup(ctx context.Context, ownerID string, starters []model.RosterEntry) (written int, err error)
	// StartingEleven returns the starters in slot order.
	StartingEleven(ctx context.Context, ownerID string) ([]model.RosterEntry, error)

	// ManagerSkill returns DefaultManagerSkill for unknown users.
	ManagerSkill(ctx context.Context, userID string) (int, error)
	// AdjustManagerSkill applies +1 on a win (cap 100) or -1 otherwise
	// (floor 0) and returns the new skill. Unknown users give ErrUserNotFound.
	AdjustManagerSkill(ctx context.Context, userID string, won bool) (int, error)

	SaveOutcome(ctx context.Context, outcome *model.MatchOutcome) error
	// Outcome returns ErrNotFound for unknown ids.
	Outcome(ctx context.Context, matchID string) (*model.MatchOutcome, error)

	// FindOpponentBySkill returns the lowest user id, other than excludeID,
	// that owns a club and whose skill is within window of skill.
	FindOpponentBySkill(ctx context.Context, excludeID string, skill, window int) (string, bool, error)
	// TopManagers returns up to n managers by skill desc, id asc.
	TopManagers(ctx context.Context, n int) ([]model.ManagerRating, error)

	Close() error
}

func clampSkill(v int) int {
	return max(0, min(100, v))
}

func nextSkill(current int, won bool) int {
	if won {
		return clampSkill(current + 1)
	}
	return clampSkill(current - 1)
}
