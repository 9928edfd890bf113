// Package live holds the server-side state two clients share while they
// replay the same match: pause quotas, who paused, and the half-time barrier.
package live

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

// DefaultMaxPauses is the pause quota of each participant.
const DefaultMaxPauses = 3

// PauseResult is returned by Pause and Resume.
type PauseResult struct {
	Success         bool `json:"success"`
	Paused          bool `json:"paused"`
	PausesRemaining int  `json:"pauses_remaining"`
}

// Status is a session as seen by one participant.
type Status struct {
	Paused          bool   `json:"paused"`
	PausesRemaining int    `json:"pauses_remaining"`
	PausedBy        string `json:"paused_by,omitempty"`
	Halftime        bool   `json:"halftime"`
}

// HalftimeResult is returned by SignalReady.
type HalftimeResult struct {
	Success  bool `json:"success"`
	Halftime bool `json:"halftime"`
}

type session struct {
	mu       sync.Mutex
	players  [2]string
	pauses   [2]int
	paused   bool
	pausedBy string
	halftime bool
	ready    [2]bool
}

// slot returns the participant index of id, or -1.
func (s *session) slot(id string) int {
	switch id {
	case s.players[0]:
		return 0
	case s.players[1]:
		return 1
	}
	return -1
}

// Coordinator tracks live sessions by match id. Mutations of one session are
// serialized by that session's mutex.
type Coordinator struct {
	mu        sync.RWMutex
	sessions  map[string]*session
	maxPauses int
	log       logger.Logger
}

// New creates a Coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		sessions:  make(map[string]*session),
		maxPauses: DefaultMaxPauses,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("live")
	}
	return c
}

// Register creates or replaces the session of matchID.
func (c *Coordinator) Register(ctx context.Context, matchID, participantA, participantB string) error {
	if matchID == "" || participantA == "" || participantB == "" || participantA == participantB {
		return fmt.Errorf("%w: match %q between %q and %q", ErrInvalidParticipants, matchID, participantA, participantB)
	}
	c.mu.Lock()
	c.sessions[matchID] = &session{players: [2]string{participantA, participantB}}
	n := len(c.sessions)
	c.mu.Unlock()

	metrics.UpdateLiveSessions(n)
	metrics.RecordLiveSessionEvent("registered")
	c.log.Debug(ctx, "live session registered",
		logger.String("match_id", matchID),
		logger.String("participant_a", participantA),
		logger.String("participant_b", participantB),
	)
	return nil
}

// lookup returns the session and the caller's slot, locked. The caller must unlock.
func (c *Coordinator) lookup(matchID, participantID string) (*session, int, error) {
	c.mu.RLock()
	s, ok := c.sessions[matchID]
	c.mu.RUnlock()
	if !ok {
		return nil, -1, fmt.Errorf("%w: %s", ErrSessionNotFound, matchID)
	}
	s.mu.Lock()
	i := s.slot(participantID)
	if i < 0 {
		s.mu.Unlock()
		return nil, -1, fmt.Errorf("%w: %s", ErrUnauthorizedParticipant, participantID)
	}
	return s, i, nil
}

// Pause pauses the match for both clients. A participant whose quota is
// spent gets Success false and the state is left untouched.
func (c *Coordinator) Pause(ctx context.Context, matchID, participantID string) (PauseResult, error) {
	s, i, err := c.lookup(matchID, participantID)
	if err != nil {
		return PauseResult{}, err
	}
	defer s.mu.Unlock()

	if s.pauses[i] >= c.maxPauses {
		metrics.RecordPauseRequest("pause", false)
		return PauseResult{Success: false, Paused: s.paused, PausesRemaining: 0}, nil
	}
	s.pauses[i]++
	s.paused = true
	s.pausedBy = participantID
	metrics.RecordPauseRequest("pause", true)
	c.log.Debug(ctx, "match paused", logger.String("match_id", matchID), logger.String("by", participantID))
	return PauseResult{Success: true, Paused: true, PausesRemaining: c.maxPauses - s.pauses[i]}, nil
}

// Resume resumes a paused match. Only the participant who paused may resume,
// unless nobody is recorded as the pauser.
func (c *Coordinator) Resume(ctx context.Context, matchID, participantID string) (PauseResult, error) {
	s, i, err := c.lookup(matchID, participantID)
	if err != nil {
		return PauseResult{}, err
	}
	defer s.mu.Unlock()

	remaining := c.remaining(s, i)
	if s.pausedBy != "" && s.pausedBy != participantID {
		metrics.RecordPauseRequest("resume", false)
		return PauseResult{Success: false, Paused: s.paused, PausesRemaining: remaining}, nil
	}
	s.paused = false
	s.pausedBy = ""
	metrics.RecordPauseRequest("resume", true)
	c.log.Debug(ctx, "match resumed", logger.String("match_id", matchID), logger.String("by", participantID))
	return PauseResult{Success: true, Paused: false, PausesRemaining: remaining}, nil
}

// Status reports the session from the caller's perspective.
func (c *Coordinator) Status(_ context.Context, matchID, participantID string) (Status, error) {
	s, i, err := c.lookup(matchID, participantID)
	if err != nil {
		return Status{}, err
	}
	defer s.mu.Unlock()
	return Status{
		Paused:          s.paused,
		PausesRemaining: c.remaining(s, i),
		PausedBy:        s.pausedBy,
		Halftime:        s.halftime,
	}, nil
}

// MarkHalftime enters half-time and clears both ready flags.
func (c *Coordinator) MarkHalftime(ctx context.Context, matchID string) error {
	c.mu.RLock()
	s, ok := c.sessions[matchID]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, matchID)
	}
	s.mu.Lock()
	s.halftime = true
	s.ready = [2]bool{}
	s.mu.Unlock()
	metrics.RecordLiveSessionEvent("halftime")
	c.log.Debug(ctx, "halftime", logger.String("match_id", matchID))
	return nil
}

// SignalReady records that the caller is ready for the second half. When
// both participants are ready, half-time ends and both flags are cleared in
// the same critical section.
func (c *Coordinator) SignalReady(ctx context.Context, matchID, participantID string) (HalftimeResult, error) {
	s, i, err := c.lookup(matchID, participantID)
	if err != nil {
		return HalftimeResult{}, err
	}
	defer s.mu.Unlock()

	s.ready[i] = true
	if s.ready[0] && s.ready[1] {
		s.halftime = false
		s.ready = [2]bool{}
		metrics.RecordHalftimeRelease()
		c.log.Debug(ctx, "second half started", logger.String("match_id", matchID))
	}
	return HalftimeResult{Success: true, Halftime: s.halftime}, nil
}

// Remove deletes the session. Removing an unknown match is a no-op.
func (c *Coordinator) Remove(ctx context.Context, matchID string) {
	c.mu.Lock()
	_, ok := c.sessions[matchID]
	delete(c.sessions, matchID)
	n := len(c.sessions)
	c.mu.Unlock()
	if !ok {
		return
	}
	metrics.UpdateLiveSessions(n)
	metrics.RecordLiveSessionEvent("removed")
	c.log.Debug(ctx, "live session removed", logger.String("match_id", matchID))
}

// Len returns the number of registered sessions.
func (c *Coordinator) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

func (c *Coordinator) remaining(s *session, i int) int {
	return max(0, c.maxPauses-s.pauses[i])
}
