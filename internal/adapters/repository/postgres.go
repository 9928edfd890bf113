package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		manager_skill INTEGER NOT NULL DEFAULT 50
	)`,
	`CREATE TABLE IF NOT EXISTS clubs (
		owner_id  TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		name      TEXT NOT NULL,
		code      TEXT NOT NULL DEFAULT '',
		crest     TEXT NOT NULL DEFAULT '',
		formation TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS lineup (
		owner_id      TEXT NOT NULL REFERENCES clubs(owner_id) ON DELETE CASCADE,
		slot          INTEGER NOT NULL,
		name          TEXT NOT NULL,
		position      TEXT NOT NULL,
		position_full TEXT NOT NULL DEFAULT '',
		overall       INTEGER NOT NULL CHECK (overall BETWEEN 1 AND 99),
		PRIMARY KEY (owner_id, slot)
	)`,
	`CREATE TABLE IF NOT EXISTS outcomes (
		id          TEXT PRIMARY KEY,
		mode        TEXT NOT NULL,
		side1_id    TEXT NOT NULL,
		side2_id    TEXT NOT NULL,
		side1_goals INTEGER NOT NULL,
		side2_goals INTEGER NOT NULL,
		winner_id   TEXT NOT NULL DEFAULT '',
		payload     JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_skill ON users(manager_skill)`,
}

// PostgresStore is a Store backed by a pgx connection pool.
type PostgresStore struct {
	Pool *pgxpool.Pool
	log  logger.Logger
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to dsn and applies the schema.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s, err := NewPostgresStore(ctx, pool, opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing pool and applies the schema.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, opts ...Option) (*PostgresStore, error) {
	o := buildOptions("repository.postgres", opts)
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	o.log.Info(ctx, "postgres store ready")
	return &PostgresStore{Pool: pool, log: o.log}, nil
}

func (s *PostgresStore) EnsureUser(ctx context.Context, userID string) (err error) {
	defer observe(driverPostgres, "ensure_user", time.Now(), &err)
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO users (id, manager_skill) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		userID, DefaultManagerSkill)
	return err
}

func (s *PostgresStore) UserExists(ctx context.Context, userID string) (ok bool, err error) {
	defer observe(driverPostgres, "user_exists", time.Now(), &err)
	err = s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&ok)
	return ok, err
}

func (s *PostgresStore) UpsertClub(ctx context.Context, club model.Club) (err error) {
	if club.OwnerID == "" || club.Name == "" {
		return fmt.Errorf("%w: club needs an owner and a name", ErrInvalidInput)
	}
	defer observe(driverPostgres, "upsert_club", time.Now(), &err)

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx,
		`INSERT INTO users (id, manager_skill) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		club.OwnerID, DefaultManagerSkill); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO clubs (owner_id, name, code, crest, formation) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id) DO UPDATE SET
			name = EXCLUDED.name, code = EXCLUDED.code,
			crest = EXCLUDED.crest, formation = EXCLUDED.formation`,
		club.OwnerID, club.Name, club.Code, club.Crest, club.Formation); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Club(ctx context.Context, ownerID string) (c model.Club, ok bool, err error) {
	defer observe(driverPostgres, "club", time.Now(), &err)
	err = s.Pool.QueryRow(ctx,
		`SELECT owner_id, name, code, crest, formation FROM clubs WHERE owner_id = $1`, ownerID,
	).Scan(&c.OwnerID, &c.Name, &c.Code, &c.Crest, &c.Formation)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Club{}, false, nil
	}
	if err != nil {
		return model.Club{}, false, err
	}
	return c, true, nil
}

func (s *PostgresStore) SetLineup(ctx context.Context, ownerID string, starters []model.RosterEntry) (written int, err error) {
	defer observe(driverPostgres, "set_lineup", time.Now(), &err)
	if _, ok, err := s.Club(ctx, ownerID); err != nil {
		return 0, err
	} else if !ok {
		return 0, fmt.Errorf("%w: %s", ErrClubNotFound, ownerID)
	}
	if _, err = s.Pool.Exec(ctx, `DELETE FROM lineup WHERE owner_id = $1`, ownerID); err != nil {
		return 0, err
	}
	for i, e := range starters {
		if verr := validEntry(e); verr != nil {
			s.log.Warn(ctx, "lineup row skipped", logger.String("owner_id", ownerID), logger.Int("slot", i), logger.Error(verr))
			continue
		}
		if _, rerr := s.Pool.Exec(ctx,
			`INSERT INTO lineup (owner_id, slot, name, position, position_full, overall) VALUES ($1, $2, $3, $4, $5, $6)`,
			ownerID, i, e.Name, e.PositionShort, e.PositionFull, e.Overall,
		); rerr != nil {
			s.log.Warn(ctx, "lineup row failed", logger.String("owner_id", ownerID), logger.Int("slot", i), logger.Error(rerr))
			continue
		}
		written++
	}
	return written, nil
}

func (s *PostgresStore) StartingEleven(ctx context.Context, ownerID string) (out []model.RosterEntry, err error) {
	defer observe(driverPostgres, "starting_eleven", time.Now(), &err)
	rows, err := s.Pool.Query(ctx,
		`SELECT name, position, position_full, overall FROM lineup WHERE owner_id = $1 ORDER BY slot`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var e model.RosterEntry
		if err = rows.Scan(&e.Name, &e.PositionShort, &e.PositionFull, &e.Overall); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ManagerSkill(ctx context.Context, userID string) (skill int, err error) {
	defer observe(driverPostgres, "manager_skill", time.Now(), &err)
	err = s.Pool.QueryRow(ctx, `SELECT manager_skill FROM users WHERE id = $1`, userID).Scan(&skill)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultManagerSkill, nil
	}
	return skill, err
}

func (s *PostgresStore) AdjustManagerSkill(ctx context.Context, userID string, won bool) (skill int, err error) {
	defer observe(driverPostgres, "adjust_skill", time.Now(), &err)
	delta := -1
	if won {
		delta = 1
	}
	err = s.Pool.QueryRow(ctx,
		`UPDATE users SET manager_skill = GREATEST(0, LEAST(100, manager_skill + $1)) WHERE id = $2 RETURNING manager_skill`,
		delta, userID,
	).Scan(&skill)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return skill, err
}

func (s *PostgresStore) SaveOutcome(ctx context.Context, outcome *model.MatchOutcome) (err error) {
	defer observe(driverPostgres, "save_outcome", time.Now(), &err)
	if outcome == nil || outcome.ID == "" {
		return fmt.Errorf("%w: outcome needs an id", ErrInvalidInput)
	}
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO outcomes (id, mode, side1_id, side2_id, side1_goals, side2_goals, winner_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		outcome.ID, string(outcome.Mode), outcome.Side1.ParticipantID, outcome.Side2.ParticipantID,
		outcome.Side1Goals, outcome.Side2Goals, outcome.WinnerID, payload, outcome.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: match %s", ErrOutcomeExists, outcome.ID)
	}
	return nil
}

func (s *PostgresStore) Outcome(ctx context.Context, matchID string) (o *model.MatchOutcome, err error) {
	defer observe(driverPostgres, "outcome", time.Now(), &err)
	var payload []byte
	err = s.Pool.QueryRow(ctx, `SELECT payload FROM outcomes WHERE id = $1`, matchID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	if err != nil {
		return nil, err
	}
	return decodeOutcome(payload)
}

func (s *PostgresStore) FindOpponentBySkill(ctx context.Context, excludeID string, skill, window int) (id string, ok bool, err error) {
	defer observe(driverPostgres, "find_opponent", time.Now(), &err)
	err = s.Pool.QueryRow(ctx, `
		SELECT u.id FROM users u JOIN clubs c ON c.owner_id = u.id
		WHERE u.id <> $1 AND u.manager_skill BETWEEN $2 AND $3
		ORDER BY u.id LIMIT 1`,
		excludeID, skill-window, skill+window,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *PostgresStore) TopManagers(ctx context.Context, n int) (out []model.ManagerRating, err error) {
	defer observe(driverPostgres, "top_managers", time.Now(), &err)
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, manager_skill FROM users ORDER BY manager_skill DESC, id ASC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var r model.ManagerRating
		if err = rows.Scan(&r.ParticipantID, &r.Skill); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.Pool.Close()
	return nil
}
