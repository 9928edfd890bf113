package model

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Mode is how a match was requested.
type Mode string

const (
	ModeBot      Mode = "bot"
	ModeRanked   Mode = "ranked"
	ModeFriendly Mode = "friendly"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBot, ModeRanked, ModeFriendly:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Rated reports whether the mode changes manager skill.
func (m Mode) Rated() bool { return m == ModeRanked }

// Pair holds one value per side.
type Pair struct {
	Side1 int `json:"side1"`
	Side2 int `json:"side2"`
}

// Statistics are cosmetic per-side match numbers.
type Statistics struct {
	Possession      Pair `json:"possession"`
	Shots           Pair `json:"shots"`
	Tackles         Pair `json:"tackles"`
	MisplacedPasses Pair `json:"misplaced_passes"`
	Fouls           Pair `json:"fouls"`
}

// PlayerGrade is a cosmetic 0..10 rating for one starter.
type PlayerGrade struct {
	Player   string  `json:"player"`
	Position string  `json:"position"`
	Grade    float64 `json:"grade"`
}

// SideSnapshot freezes everything about one side at simulation time.
type SideSnapshot struct {
	ParticipantID string        `json:"participant_id,omitempty"`
	Club          ClubSnapshot  `json:"club"`
	Strength      TeamStrength  `json:"strength"`
	Starters      []RosterEntry `json:"starters"`
	Grades        []PlayerGrade `json:"grades"`
	RedCards      int           `json:"red_cards"`
}

// Winner side values.
const (
	WinnerNone  = 0
	WinnerSide1 = 1
	WinnerSide2 = 2
)

// MatchOutcome is the immutable result of a simulation. Side 1 is always the requester.
type MatchOutcome struct {
	ID         string       `json:"id"`
	Mode       Mode         `json:"mode"`
	Side1Goals int          `json:"side1_goals"`
	Side2Goals int          `json:"side2_goals"`
	WinnerID   string       `json:"winner_id,omitempty"` // empty on draw or bot win
	WinnerSide int          `json:"winner_side"`
	Events     []MatchEvent `json:"events"`
	Statistics Statistics   `json:"statistics"`
	Side1      SideSnapshot `json:"side1"`
	Side2      SideSnapshot `json:"side2"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Draw reports whether neither side won.
func (o *MatchOutcome) Draw() bool { return o.Side1Goals == o.Side2Goals }

// Goals returns the total number of goals.
func (o *MatchOutcome) Goals() int { return o.Side1Goals + o.Side2Goals }

// Participants returns the human participant ids of the match.
func (o *MatchOutcome) Participants() []string {
	ids := make([]string, 0, 2)
	for _, id := range []string{o.Side1.ParticipantID, o.Side2.ParticipantID} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clone returns a deep copy; the slices of the copy share nothing with o.
func (o *MatchOutcome) Clone() *MatchOutcome {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Events = slices.Clone(o.Events)
	cp.Side1 = o.Side1.clone()
	cp.Side2 = o.Side2.clone()
	return &cp
}

func (s SideSnapshot) clone() SideSnapshot {
	s.Starters = slices.Clone(s.Starters)
	s.Grades = slices.Clone(s.Grades)
	s.Strength.Sectors = maps.Clone(s.Strength.Sectors)
	return s
}
