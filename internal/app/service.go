// Package service wires the match engine components together and exposes the
// operations the HTTP API and the CLI call into.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/formation"
	"github.com/okian/matchday/internal/domain/live"
	"github.com/okian/matchday/internal/domain/matchmaking"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/simulation"
	"github.com/okian/matchday/internal/domain/strength"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

// ErrInvalidChallengeMode is returned when a challenge asks for a bot match.
var ErrInvalidChallengeMode = errors.New("challenge mode must be friendly or ranked")

// Poll statuses.
const (
	PollIdle    = "idle"
	PollWaiting = "waiting"
	PollMatched = "matched"
)

const defaultMaxLeaderboardLimit = 100

// PollResult is the answer to a matchmaking poll.
type PollResult struct {
	Status     string              `json:"status"`
	MatchID    string              `json:"match_id,omitempty"`
	OpponentID string              `json:"opponent_id,omitempty"`
	Outcome    *model.MatchOutcome `json:"outcome,omitempty"`
}

// ClubView is a club with its starters and computed strength.
type ClubView struct {
	Club     model.Club          `json:"club"`
	Starters []model.RosterEntry `json:"starters"`
	Strength *model.TeamStrength `json:"strength,omitempty"`
}

// Service owns the generator, the matchmaking queue and the live coordinator.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	generator *simulation.Generator
	queue     *matchmaking.Queue
	live      *live.Coordinator

	skillWindow   int
	queueTTL      time.Duration
	stagedTTL     time.Duration
	sweepInterval time.Duration
	maxPauses     int
	maxLimit      int
	seed          int64
	now           func() time.Time

	started   bool
	cancel    context.CancelFunc
	sweepDone chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSkillWindow sets the skill distance allowed when pairing.
func WithSkillWindow(w int) Option {
	return func(s *Service) {
		if w >= 0 {
			s.skillWindow = w
		}
	}
}

// WithQueueTTL sets how long an idle queue entry survives.
func WithQueueTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.queueTTL = d
		}
	}
}

// WithStagedTTL sets how long a staged outcome survives.
func WithStagedTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.stagedTTL = d
		}
	}
}

// WithSweepInterval sets the tick of the background sweeper.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithMaxPauses sets the pause quota of each participant.
func WithMaxPauses(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxPauses = n
		}
	}
}

// WithMaxLeaderboardLimit caps the leaderboard page size.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithSeed makes match generation reproducible. Zero keeps a random seed.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithClock overrides time.Now for the components the service builds.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		skillWindow:   matchmaking.DefaultSkillWindow,
		queueTTL:      matchmaking.DefaultQueueTTL,
		stagedTTL:     matchmaking.DefaultStagedTTL,
		sweepInterval: matchmaking.DefaultSweepInterval,
		maxPauses:     live.DefaultMaxPauses,
		maxLimit:      defaultMaxLeaderboardLimit,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	genOpts := []simulation.Option{
		simulation.WithClock(s.now),
		simulation.WithLogger(s.logger.Named("simulation")),
	}
	if s.seed != 0 {
		genOpts = append(genOpts, simulation.WithSeed(uint64(s.seed)))
	}
	s.generator = simulation.New(store, genOpts...)
	s.queue = matchmaking.New(
		matchmaking.WithSkillWindow(s.skillWindow),
		matchmaking.WithQueueTTL(s.queueTTL),
		matchmaking.WithStagedTTL(s.stagedTTL),
		matchmaking.WithSweepInterval(s.sweepInterval),
		matchmaking.WithClock(s.now),
		matchmaking.WithLogger(s.logger.Named("matchmaking")),
	)
	s.live = live.New(
		live.WithMaxPauses(s.maxPauses),
		live.WithLogger(s.logger.Named("live")),
	)
	return s
}

// Generator exposes the match generator, e.g. for the batch worker pool.
func (s *Service) Generator() *simulation.Generator { return s.generator }

// Start launches the background sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.sweepDone = make(chan struct{})
	go func() {
		defer close(s.sweepDone)
		s.queue.Run(sweepCtx, func(r matchmaking.SweepResult) { s.onSweep(sweepCtx, r) })
	}()

	s.started = true
	s.logger.Info(ctx, "match service started",
		logger.Int("skill_window", s.skillWindow),
		logger.Duration("queue_ttl", s.queueTTL),
		logger.Duration("staged_ttl", s.stagedTTL),
		logger.Duration("sweep_interval", s.sweepInterval),
		logger.Int("max_pauses", s.maxPauses),
	)
	return nil
}

// Stop halts the sweeper and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping match service...")
	s.cancel()
	<-s.sweepDone
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "match service stopped")
}

// onSweep drops the live sessions of staged matches that expired.
func (s *Service) onSweep(ctx context.Context, r matchmaking.SweepResult) {
	for _, matchID := range r.StagedRemoved {
		s.live.Remove(ctx, matchID)
	}
}

// SimulateBot plays the requester against a synthetic opponent.
func (s *Service) SimulateBot(ctx context.Context, requesterID string) (*model.MatchOutcome, error) {
	return s.generator.Simulate(ctx, requesterID, "", model.ModeBot)
}

// PlayRanked plays a ranked match against the first stored manager within
// the skill window who owns a club.
func (s *Service) PlayRanked(ctx context.Context, requesterID string) (*model.MatchOutcome, error) {
	skill, err := s.store.ManagerSkill(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("lookup manager skill: %w", err)
	}
	opponentID, ok, err := s.store.FindOpponentBySkill(ctx, requesterID, skill, s.skillWindow)
	if err != nil {
		return nil, fmt.Errorf("find opponent: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: nobody within %d of skill %d", simulation.ErrOpponentNotFound, s.skillWindow, skill)
	}
	return s.generator.Simulate(ctx, requesterID, opponentID, model.ModeRanked)
}

// Challenge plays the requester against a named opponent and stages the
// outcome so the opponent finds it on their next poll.
func (s *Service) Challenge(ctx context.Context, requesterID, opponentID string, mode model.Mode) (*model.MatchOutcome, error) {
	if mode != model.ModeFriendly && mode != model.ModeRanked {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChallengeMode, mode)
	}
	out, err := s.generator.Simulate(ctx, requesterID, opponentID, mode)
	if err != nil {
		return out, err
	}
	if err := s.StageMatch(ctx, out.ID, requesterID, opponentID, out); err != nil {
		return out, err
	}
	return out, nil
}

// ComputeStrength rates a starting eleven.
func (s *Service) ComputeStrength(_ context.Context, starters []model.RosterEntry) (model.TeamStrength, error) {
	return strength.Compute(starters)
}

// EnqueueForMatch puts the participant in the matchmaking queue with their
// current manager skill. Only club owners may queue.
func (s *Service) EnqueueForMatch(ctx context.Context, participantID string) (matchmaking.Entry, error) {
	_, ok, err := s.store.Club(ctx, participantID)
	if err != nil {
		return matchmaking.Entry{}, fmt.Errorf("lookup club: %w", err)
	}
	if !ok {
		return matchmaking.Entry{}, fmt.Errorf("%w: %s cannot queue without a club", repository.ErrClubNotFound, participantID)
	}
	skill, err := s.store.ManagerSkill(ctx, participantID)
	if err != nil {
		return matchmaking.Entry{}, fmt.Errorf("lookup manager skill: %w", err)
	}
	s.queue.Enqueue(participantID, skill)
	s.logger.Debug(ctx, "participant queued", logger.String("participant_id", participantID), logger.Int("skill", skill))
	return matchmaking.Entry{ParticipantID: participantID, Skill: skill, EnqueuedAt: s.now()}, nil
}

// LeaveQueue removes the participant from the queue. It reports whether they were queued.
func (s *Service) LeaveQueue(_ context.Context, participantID string) bool {
	return s.queue.Leave(participantID)
}

// PollForOpponent returns a staged match for the participant if one exists;
// otherwise it tries to pair them and, on success, simulates a ranked
// match, stages it for both sides and registers the live session.
func (s *Service) PollForOpponent(ctx context.Context, participantID string) (PollResult, error) {
	if sm, ok := s.queue.FetchStaged(participantID); ok {
		return matched(sm, participantID), nil
	}

	paired, ok, err := s.queue.TryPair(participantID)
	if errors.Is(err, matchmaking.ErrNotQueued) {
		return PollResult{Status: PollIdle}, nil
	}
	if err != nil {
		return PollResult{}, err
	}
	if !ok {
		return PollResult{Status: PollWaiting}, nil
	}
	defer s.queue.ReleasePair(participantID, paired.ParticipantID)

	out, err := s.generator.Simulate(ctx, participantID, paired.ParticipantID, model.ModeRanked)
	switch {
	case errors.Is(err, simulation.ErrOpponentHasNoLineup), errors.Is(err, simulation.ErrOpponentNotFound):
		// The opponent cannot play; keep the requester waiting.
		skill, serr := s.store.ManagerSkill(ctx, participantID)
		if serr != nil {
			return PollResult{}, fmt.Errorf("lookup manager skill: %w", serr)
		}
		s.queue.Enqueue(participantID, skill)
		s.logger.Warn(ctx, "paired opponent cannot play", logger.String("opponent_id", paired.ParticipantID), logger.Error(err))
		return PollResult{Status: PollWaiting}, nil
	case err != nil:
		s.queue.Enqueue(paired.ParticipantID, paired.Skill)
		return PollResult{}, err
	}

	if err := s.StageMatch(ctx, out.ID, participantID, paired.ParticipantID, out); err != nil {
		return PollResult{}, err
	}
	return PollResult{Status: PollMatched, MatchID: out.ID, OpponentID: paired.ParticipantID, Outcome: out}, nil
}

func matched(sm matchmaking.StagedMatch, participantID string) PollResult {
	opponent := sm.ParticipantB
	if participantID == sm.ParticipantB {
		opponent = sm.ParticipantA
	}
	return PollResult{Status: PollMatched, MatchID: sm.MatchID, OpponentID: opponent, Outcome: sm.Outcome}
}

// StageMatch stores the outcome for both participants and registers the
// live session between them.
func (s *Service) StageMatch(ctx context.Context, matchID, participantA, participantB string, out *model.MatchOutcome) error {
	if err := s.queue.Stage(matchID, participantA, participantB, out); err != nil {
		return err
	}
	if participantB == "" {
		return nil
	}
	return s.RegisterLiveSession(ctx, matchID, participantA, participantB)
}

// FetchStaged returns the staged match of a participant without consuming it.
func (s *Service) FetchStaged(_ context.Context, participantID string) (matchmaking.StagedMatch, bool) {
	return s.queue.FetchStaged(participantID)
}

// ClearStaged removes a staged match and its live session. The caller must
// be one of the participants.
func (s *Service) ClearStaged(ctx context.Context, matchID, participantID string) error {
	if _, err := s.live.Status(ctx, matchID, participantID); err != nil && !errors.Is(err, live.ErrSessionNotFound) {
		return err
	}
	s.queue.ClearStaged(matchID)
	s.live.Remove(ctx, matchID)
	return nil
}

// RegisterLiveSession creates the shared pause and half-time state of a match.
func (s *Service) RegisterLiveSession(ctx context.Context, matchID, participantA, participantB string) error {
	return s.live.Register(ctx, matchID, participantA, participantB)
}

// PauseMatch pauses a live match on behalf of a participant.
func (s *Service) PauseMatch(ctx context.Context, matchID, participantID string) (live.PauseResult, error) {
	return s.live.Pause(ctx, matchID, participantID)
}

// ResumeMatch resumes a live match on behalf of a participant.
func (s *Service) ResumeMatch(ctx context.Context, matchID, participantID string) (live.PauseResult, error) {
	return s.live.Resume(ctx, matchID, participantID)
}

// MatchStatus reports the live state of a match to one participant.
func (s *Service) MatchStatus(ctx context.Context, matchID, participantID string) (live.Status, error) {
	return s.live.Status(ctx, matchID, participantID)
}

// MarkHalftime enters half-time. Only participants may trigger it.
func (s *Service) MarkHalftime(ctx context.Context, matchID, participantID string) error {
	if _, err := s.live.Status(ctx, matchID, participantID); err != nil {
		return err
	}
	return s.live.MarkHalftime(ctx, matchID)
}

// SignalHalftimeReady records that a participant is ready for the second half.
func (s *Service) SignalHalftimeReady(ctx context.Context, matchID, participantID string) (live.HalftimeResult, error) {
	return s.live.SignalReady(ctx, matchID, participantID)
}

// SaveClub creates or updates the caller's club. Unknown formations fall
// back to the default one.
func (s *Service) SaveClub(ctx context.Context, club model.Club) (model.Club, error) {
	if !formation.Known(club.Formation) {
		club.Formation = formation.Default
	}
	if err := s.store.UpsertClub(ctx, club); err != nil {
		return model.Club{}, err
	}
	return club, nil
}

// SetLineup replaces the caller's starters and returns how many were stored.
func (s *Service) SetLineup(ctx context.Context, ownerID string, starters []model.RosterEntry) (int, error) {
	n, err := s.store.SetLineup(ctx, ownerID, starters)
	if err != nil {
		return 0, err
	}
	if n < len(starters) {
		s.logger.Warn(ctx, "lineup partially stored",
			logger.String("owner_id", ownerID),
			logger.Int("requested", len(starters)),
			logger.Int("stored", n),
		)
	}
	return n, nil
}

// Club returns the caller's club, starters and, when the lineup is
// complete, its strength.
func (s *Service) Club(ctx context.Context, ownerID string) (ClubView, error) {
	club, ok, err := s.store.Club(ctx, ownerID)
	if err != nil {
		return ClubView{}, err
	}
	if !ok {
		return ClubView{}, fmt.Errorf("%w: %s", repository.ErrClubNotFound, ownerID)
	}
	starters, err := s.store.StartingEleven(ctx, ownerID)
	if err != nil {
		return ClubView{}, err
	}
	view := ClubView{Club: club, Starters: starters}
	if ts, err := strength.Compute(starters); err == nil {
		view.Strength = &ts
	}
	return view, nil
}

// Formation returns the slots of a formation and the name actually used.
func (s *Service) Formation(name string) (string, []formation.Slot) {
	if !formation.Known(name) {
		name = formation.Default
	}
	return name, formation.Slots(name)
}

// Leaderboard returns the managers with the highest skill.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]model.ManagerRating, error) {
	if limit < 1 || limit > s.maxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", repository.ErrInvalidLimit, s.maxLimit)
	}
	return s.store.TopManagers(ctx, limit)
}

// MaxLeaderboardLimit returns the largest accepted leaderboard limit.
func (s *Service) MaxLeaderboardLimit() int { return s.maxLimit }

// Outcome returns a persisted match outcome.
func (s *Service) Outcome(ctx context.Context, matchID string) (*model.MatchOutcome, error) {
	return s.store.Outcome(ctx, matchID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	queueLen := s.queue.Len()
	staged := s.queue.StagedLen()
	sessions := s.live.Len()

	metrics.UpdateQueueLength(queueLen)
	metrics.UpdateStagedMatches(staged)
	metrics.UpdateLiveSessions(sessions)

	return map[string]interface{}{
		"started":        started,
		"queueLength":    queueLen,
		"stagedMatches":  staged,
		"liveSessions":   sessions,
		"skillWindow":    s.skillWindow,
		"maxPauses":      s.maxPauses,
		"queueTTL":       s.queueTTL.String(),
		"stagedTTL":      s.stagedTTL.String(),
		"sweepInterval":  s.sweepInterval.String(),
		"maxLeaderboard": s.maxLimit,
	}
}
