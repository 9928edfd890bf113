// Package simulation generates complete match outcomes from two starting elevens.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchday/internal/domain/formation"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/strength"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

// Rosters resolves a participant's club and starting eleven.
type Rosters interface {
	UserExists(ctx context.Context, participantID string) (bool, error)
	Club(ctx context.Context, participantID string) (model.Club, bool, error)
	StartingEleven(ctx context.Context, participantID string) ([]model.RosterEntry, error)
}

// ManagerSkills reads and adjusts manager ratings.
type ManagerSkills interface {
	ManagerSkill(ctx context.Context, participantID string) (int, error)
	AdjustManagerSkill(ctx context.Context, participantID string, won bool) (int, error)
}

// OutcomeSaver persists finished matches.
type OutcomeSaver interface {
	SaveOutcome(ctx context.Context, outcome *model.MatchOutcome) error
}

// Store is everything the generator needs from persistence.
type Store interface {
	Rosters
	ManagerSkills
	OutcomeSaver
}

const (
	matchMinutes   = 90
	defaultBotLo   = 60.0
	defaultBotHi   = 80.0
	botFormation   = formation.Default
	redCardShare   = 0.2
	redCardPenalty = 0.05
	maxCards       = 4
	minFillers     = 10
	fillerSpread   = 15 // fillers are minFillers + [0, fillerSpread)
)

// Generator simulates matches. It is safe for concurrent use.
type Generator struct {
	store  Store
	log    logger.Logger
	now    func() time.Time
	nextID func() string

	mu  sync.Mutex // guards rng
	rng *rand.Rand

	botLo, botHi float64
}

// New creates a Generator backed by store.
func New(store Store, opts ...Option) *Generator {
	g := &Generator{
		store:  store,
		now:    time.Now,
		nextID: uuid.NewString,
		botLo:  defaultBotLo,
		botHi:  defaultBotHi,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if g.log == nil {
		g.log = logger.Get().Named("simulation")
	}
	return g
}

// team is one resolved side of a match.
type team struct {
	participantID string
	club          model.ClubSnapshot
	starters      []model.RosterEntry
	strength      model.TeamStrength
}

// Simulate plays requesterID against opponentID (ignored for bot matches)
// and persists the outcome. Side 1 is always the requester.
func (g *Generator) Simulate(ctx context.Context, requesterID, opponentID string, mode model.Mode) (*model.MatchOutcome, error) {
	start := time.Now()
	out, err := g.simulate(ctx, requesterID, opponentID, mode)
	if err != nil {
		metrics.RecordSimulationFailure(failureReason(err))
		g.log.Debug(ctx, "simulation rejected",
			logger.String("requester", requesterID),
			logger.String("opponent", opponentID),
			logger.String("mode", string(mode)),
			logger.Error(err),
		)
		return nil, err
	}
	took := time.Since(start)
	metrics.RecordMatchSimulated(string(mode), out.Goals(), float64(took.Microseconds())/1000)
	g.log.Debug(ctx, "match simulated",
		logger.String("match_id", out.ID),
		logger.String("mode", string(mode)),
		logger.Int("side1_goals", out.Side1Goals),
		logger.Int("side2_goals", out.Side2Goals),
		logger.Int("events", len(out.Events)),
		logger.Duration("took", took),
	)
	return out, nil
}

func (g *Generator) simulate(ctx context.Context, requesterID, opponentID string, mode model.Mode) (*model.MatchOutcome, error) {
	if _, err := model.ParseMode(string(mode)); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	home, err := g.resolveHuman(ctx, requesterID)
	if err != nil {
		if errors.Is(err, errMissingLineup) {
			return nil, fmt.Errorf("%w: %w", ErrIncompleteLineup, err)
		}
		return nil, err
	}

	var away team
	if mode == model.ModeBot {
		away = g.botTeam()
	} else {
		if away, err = g.resolveOpponent(ctx, requesterID, opponentID); err != nil {
			return nil, err
		}
	}

	out := g.play(home, away)
	out.ID = g.nextID()
	out.Mode = mode
	out.CreatedAt = g.now().UTC()

	if err := g.store.SaveOutcome(ctx, out); err != nil {
		return nil, fmt.Errorf("save outcome: %w", err)
	}

	if mode.Rated() && !out.Draw() {
		g.applyRating(ctx, out)
	}
	return out, nil
}

func (g *Generator) resolveOpponent(ctx context.Context, requesterID, opponentID string) (team, error) {
	if opponentID == "" {
		return team{}, ErrOpponentNotFound
	}
	if opponentID == requesterID {
		return team{}, ErrSelfMatch
	}
	ok, err := g.store.UserExists(ctx, opponentID)
	if err != nil {
		return team{}, fmt.Errorf("lookup opponent: %w", err)
	}
	if !ok {
		return team{}, fmt.Errorf("%w: %s", ErrOpponentNotFound, opponentID)
	}
	t, err := g.resolveHuman(ctx, opponentID)
	if err != nil {
		if errors.Is(err, errMissingLineup) {
			return team{}, fmt.Errorf("%w: %w", ErrOpponentHasNoLineup, err)
		}
		return team{}, err
	}
	return t, nil
}

func (g *Generator) resolveHuman(ctx context.Context, participantID string) (team, error) {
	club, ok, err := g.store.Club(ctx, participantID)
	if err != nil {
		return team{}, fmt.Errorf("lookup club: %w", err)
	}
	if !ok {
		return team{}, fmt.Errorf("%w: %s has no club", errMissingLineup, participantID)
	}
	starters, err := g.store.StartingEleven(ctx, participantID)
	if err != nil {
		return team{}, fmt.Errorf("lookup starters: %w", err)
	}
	ts, err := strength.Compute(starters)
	if err != nil {
		return team{}, fmt.Errorf("%w: %w", errMissingLineup, err)
	}
	skill, err := g.store.ManagerSkill(ctx, participantID)
	if err != nil {
		return team{}, fmt.Errorf("lookup manager skill: %w", err)
	}
	return team{
		participantID: participantID,
		club:          club.Snapshot(),
		starters:      starters[:strength.StartersRequired],
		strength:      strength.WithManagerBonus(ts, skill),
	}, nil
}

func (g *Generator) botTeam() team {
	g.mu.Lock()
	value := g.botLo + g.rng.Float64()*(g.botHi-g.botLo)
	g.mu.Unlock()

	overall := int(value + 0.5)
	slots := formation.Slots(botFormation)
	starters := make([]model.RosterEntry, len(slots))
	for i, sl := range slots {
		starters[i] = model.RosterEntry{
			Name:          fmt.Sprintf("Bot Player %d", i+1),
			PositionShort: sl.Position,
			PositionFull:  sl.Position,
			Overall:       overall,
		}
	}
	return team{
		club:     model.ClubSnapshot{Name: "Bot", Code: "BOT", Crest: "flamengo"},
		starters: starters,
		strength: strength.Uniform(overall),
	}
}

// applyRating moves both managers by one. The outcome is already stored, so
// a failed adjustment is logged and the other side is still applied.
func (g *Generator) applyRating(ctx context.Context, out *model.MatchOutcome) {
	winner, loser := out.Side1.ParticipantID, out.Side2.ParticipantID
	if out.WinnerSide == model.WinnerSide2 {
		winner, loser = loser, winner
	}
	for _, side := range []struct {
		id        string
		won       bool
		direction string
	}{{winner, true, "up"}, {loser, false, "down"}} {
		if _, err := g.store.AdjustManagerSkill(ctx, side.id, side.won); err != nil {
			metrics.RecordSimulationFailure("rating")
			g.log.Warn(ctx, "manager skill not adjusted",
				logger.String("match_id", out.ID),
				logger.String("participant_id", side.id),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordSkillChange(side.direction)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrIncompleteLineup):
		return "incomplete_lineup"
	case errors.Is(err, ErrOpponentNotFound):
		return "opponent_not_found"
	case errors.Is(err, ErrOpponentHasNoLineup):
		return "opponent_no_lineup"
	case errors.Is(err, ErrSelfMatch):
		return "self_match"
	case errors.Is(err, ErrUnknownMode):
		return "unknown_mode"
	default:
		return "store"
	}
}
