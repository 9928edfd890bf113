package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu       sync.RWMutex
	skills   map[string]int
	clubs    map[string]model.Club
	lineups  map[string][]model.RosterEntry
	outcomes map[string]*model.MatchOutcome
	log      logger.Logger
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions("repository.memory", opts)
	return &MemoryStore{
		skills:   make(map[string]int),
		clubs:    make(map[string]model.Club),
		lineups:  make(map[string][]model.RosterEntry),
		outcomes: make(map[string]*model.MatchOutcome),
		log:      o.log,
	}
}

func (s *MemoryStore) EnsureUser(_ context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.skills[userID]; !ok {
		s.skills[userID] = DefaultManagerSkill
	}
	return nil
}

func (s *MemoryStore) UserExists(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.skills[userID]
	return ok, nil
}

func (s *MemoryStore) UpsertClub(ctx context.Context, club model.Club) error {
	if club.OwnerID == "" || club.Name == "" {
		return fmt.Errorf("%w: club needs an owner and a name", ErrInvalidInput)
	}
	if err := s.EnsureUser(ctx, club.OwnerID); err != nil {
		return err
	}
	s.mu.Lock()
	s.clubs[club.OwnerID] = club
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Club(_ context.Context, ownerID string) (model.Club, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clubs[ownerID]
	return c, ok, nil
}

func (s *MemoryStore) SetLineup(ctx context.Context, ownerID string, starters []model.RosterEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clubs[ownerID]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrClubNotFound, ownerID)
	}
	rows := make([]model.RosterEntry, 0, len(starters))
	for i, e := range starters {
		if err := validEntry(e); err != nil {
			s.log.Warn(ctx, "lineup row skipped", logger.String("owner_id", ownerID), logger.Int("slot", i), logger.Error(err))
			continue
		}
		rows = append(rows, e)
	}
	s.lineups[ownerID] = rows
	return len(rows), nil
}

func (s *MemoryStore) StartingEleven(_ context.Context, ownerID string) ([]model.RosterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lineups[ownerID]), nil
}

func (s *MemoryStore) ManagerSkill(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.skills[userID]; ok {
		return v, nil
	}
	return DefaultManagerSkill, nil
}

func (s *MemoryStore) AdjustManagerSkill(_ context.Context, userID string, won bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.skills[userID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	v = nextSkill(v, won)
	s.skills[userID] = v
	return v, nil
}

func (s *MemoryStore) SaveOutcome(_ context.Context, outcome *model.MatchOutcome) error {
	if outcome == nil || outcome.ID == "" {
		return fmt.Errorf("%w: outcome needs an id", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.outcomes[outcome.ID]; ok {
		return fmt.Errorf("%w: match %s", ErrOutcomeExists, outcome.ID)
	}
	s.outcomes[outcome.ID] = outcome.Clone()
	return nil
}

func (s *MemoryStore) Outcome(_ context.Context, matchID string) (*model.MatchOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.outcomes[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	return o.Clone(), nil
}

func (s *MemoryStore) FindOpponentBySkill(_ context.Context, excludeID string, skill, window int) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.clubs))
	for id := range s.clubs {
		if id == excludeID {
			continue
		}
		if d := s.skills[id] - skill; d >= -window && d <= window {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", false, nil
	}
	sort.Strings(ids)
	return ids[0], true, nil
}

func (s *MemoryStore) TopManagers(_ context.Context, n int) ([]model.ManagerRating, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	out := make([]model.ManagerRating, 0, len(s.skills))
	for id, v := range s.skills {
		out = append(out, model.ManagerRating{ParticipantID: id, Skill: v})
	}
	s.mu.RUnlock()
	sortRatings(out)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func sortRatings(r []model.ManagerRating) {
	sort.Slice(r, func(i, j int) bool {
		if r[i].Skill != r[j].Skill {
			return r[i].Skill > r[j].Skill
		}
		return r[i].ParticipantID < r[j].ParticipantID
	})
}

func validEntry(e model.RosterEntry) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: player name is empty", ErrInvalidInput)
	}
	if e.Overall < 1 || e.Overall > 99 {
		return fmt.Errorf("%w: overall %d outside 1..99", ErrInvalidInput, e.Overall)
	}
	return nil
}
