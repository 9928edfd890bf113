// Package matchmaking pairs waiting participants by manager skill and holds
// finished outcomes until both participants have polled for them.
package matchmaking

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

// Defaults.
const (
	DefaultSkillWindow   = 5
	DefaultQueueTTL      = 5 * time.Minute
	DefaultStagedTTL     = 10 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Entry is a participant waiting for an opponent.
type Entry struct {
	ParticipantID string    `json:"participant_id"`
	Skill         int       `json:"skill"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
}

// StagedMatch is an outcome waiting to be picked up.
type StagedMatch struct {
	MatchID      string              `json:"match_id"`
	ParticipantA string              `json:"participant_a"`
	ParticipantB string              `json:"participant_b,omitempty"`
	Outcome      *model.MatchOutcome `json:"outcome"`
	StagedAt     time.Time           `json:"staged_at"`
}

// SweepResult reports what a sweep removed.
type SweepResult struct {
	QueueRemoved  []string // participant ids
	StagedRemoved []string // match ids
}

// Queue is the matchmaking queue plus the staged-outcome table. A single
// mutex guards both so pairing and staging are atomic.
type Queue struct {
	mu            sync.Mutex
	order         []string // participant ids in insertion order
	entries       map[string]*Entry
	staged        map[string]*StagedMatch
	byParticipant map[string]string
	pairing       map[string]string // participant -> partner while their match is simulated

	window     int
	queueTTL   time.Duration
	stagedTTL  time.Duration
	sweepEvery time.Duration
	now        func() time.Time
	log        logger.Logger
}

// New creates a Queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		entries:       make(map[string]*Entry),
		staged:        make(map[string]*StagedMatch),
		byParticipant: make(map[string]string),
		pairing:       make(map[string]string),
		window:        DefaultSkillWindow,
		queueTTL:      DefaultQueueTTL,
		stagedTTL:     DefaultStagedTTL,
		sweepEvery:    DefaultSweepInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.log == nil {
		q.log = logger.Get().Named("matchmaking")
	}
	return q
}

// Enqueue adds or refreshes a participant. A participant already waiting
// keeps its position; skill and timestamp are updated.
func (q *Queue) Enqueue(participantID string, skill int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	if e, ok := q.entries[participantID]; ok {
		e.Skill = skill
		e.EnqueuedAt = now
		return
	}
	q.entries[participantID] = &Entry{ParticipantID: participantID, Skill: skill, EnqueuedAt: now}
	q.order = append(q.order, participantID)
	metrics.UpdateQueueLength(len(q.order))
}

// Leave removes a participant. It reports whether the participant was queued.
func (q *Queue) Leave(participantID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(participantID)
}

// Contains reports whether a participant is waiting.
func (q *Queue) Contains(participantID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.entries[participantID]
	return ok
}

// Len returns the number of waiting participants.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Entries returns a snapshot of the queue in insertion order.
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Entry, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, *q.entries[id])
	}
	return out
}

// TryPair looks for the first waiting participant, in insertion order,
// whose skill is within the window of the requester's. On a match both
// entries are removed and marked as pairing before the lock is released;
// the caller ends the pairing with ReleasePair. A participant whose pair is
// still being simulated gets no match and no error.
func (q *Queue) TryPair(participantID string) (Entry, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	self, ok := q.entries[participantID]
	if !ok {
		if _, busy := q.pairing[participantID]; busy {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("%w: %s", ErrNotQueued, participantID)
	}
	for _, id := range q.order {
		if id == participantID {
			continue
		}
		cand := q.entries[id]
		if abs(cand.Skill-self.Skill) > q.window {
			continue
		}
		paired := *cand
		q.removeLocked(participantID)
		q.removeLocked(id)
		q.pairing[participantID] = id
		q.pairing[id] = participantID
		metrics.RecordPairing()
		return paired, true, nil
	}
	return Entry{}, false, nil
}

// ReleasePair ends the pairing of a and b started by TryPair.
func (q *Queue) ReleasePair(a, b string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pairing[a] == b {
		delete(q.pairing, a)
	}
	if q.pairing[b] == a {
		delete(q.pairing, b)
	}
}

// Pairing reports whether the participant's pair is being simulated.
func (q *Queue) Pairing(participantID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pairing[participantID]
	return ok
}

// Stage stores an outcome for both participants. participantB may be empty.
func (q *Queue) Stage(matchID, participantA, participantB string, outcome *model.MatchOutcome) error {
	if matchID == "" || participantA == "" {
		return ErrInvalidStage
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.clearLocked(matchID)
	q.staged[matchID] = &StagedMatch{
		MatchID:      matchID,
		ParticipantA: participantA,
		ParticipantB: participantB,
		Outcome:      outcome,
		StagedAt:     q.now(),
	}
	q.byParticipant[participantA] = matchID
	if participantB != "" {
		q.byParticipant[participantB] = matchID
	}
	metrics.UpdateStagedMatches(len(q.staged))
	return nil
}

// FetchStaged returns the staged match of a participant without removing it,
// so the second poller still finds it.
func (q *Queue) FetchStaged(participantID string) (StagedMatch, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	matchID, ok := q.byParticipant[participantID]
	if !ok {
		return StagedMatch{}, false
	}
	sm, ok := q.staged[matchID]
	if !ok {
		delete(q.byParticipant, participantID)
		return StagedMatch{}, false
	}
	metrics.RecordStagedDelivered()
	return *sm, true
}

// ClearStaged removes a staged match for both participants. It reports
// whether anything was removed.
func (q *Queue) ClearStaged(matchID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.clearLocked(matchID)
}

// StagedLen returns the number of staged matches.
func (q *Queue) StagedLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.staged)
}

// Sweep removes queue entries idle longer than the queue TTL and staged
// matches older than the staged TTL.
func (q *Queue) Sweep(now time.Time) SweepResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	var res SweepResult
	for _, id := range slices.Clone(q.order) {
		if now.Sub(q.entries[id].EnqueuedAt) > q.queueTTL {
			q.removeLocked(id)
			res.QueueRemoved = append(res.QueueRemoved, id)
		}
	}
	for id, sm := range q.staged {
		if now.Sub(sm.StagedAt) > q.stagedTTL {
			q.clearLocked(id)
			res.StagedRemoved = append(res.StagedRemoved, id)
		}
	}
	slices.Sort(res.StagedRemoved)
	metrics.RecordSwept("queue", len(res.QueueRemoved))
	metrics.RecordSwept("staged", len(res.StagedRemoved))
	return res
}

// Run sweeps on every tick until ctx is done. onSweep, when set, is called
// after each sweep outside the queue lock.
func (q *Queue) Run(ctx context.Context, onSweep func(SweepResult)) {
	ticker := time.NewTicker(q.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := q.Sweep(q.now())
			if len(res.QueueRemoved) > 0 || len(res.StagedRemoved) > 0 {
				q.log.Info(ctx, "matchmaking sweep",
					logger.Int("queue_removed", len(res.QueueRemoved)),
					logger.Int("staged_removed", len(res.StagedRemoved)),
				)
			}
			if onSweep != nil {
				onSweep(res)
			}
		}
	}
}

func (q *Queue) removeLocked(participantID string) bool {
	if _, ok := q.entries[participantID]; !ok {
		return false
	}
	delete(q.entries, participantID)
	if i := slices.Index(q.order, participantID); i >= 0 {
		q.order = slices.Delete(q.order, i, i+1)
	}
	metrics.UpdateQueueLength(len(q.order))
	return true
}

func (q *Queue) clearLocked(matchID string) bool {
	sm, ok := q.staged[matchID]
	if !ok {
		return false
	}
	delete(q.staged, matchID)
	for _, p := range []string{sm.ParticipantA, sm.ParticipantB} {
		if p != "" && q.byParticipant[p] == matchID {
			delete(q.byParticipant, p)
		}
	}
	metrics.UpdateStagedMatches(len(q.staged))
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
