package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"

	_ "modernc.org/sqlite"
)

const (
	driverMemory   = "memory"
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

var sqliteSchema = []string{
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
		payload     TEXT NOT NULL,
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_skill ON users(manager_skill)`,
}

// SQLiteStore is a Store backed by a SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions("repository.sqlite", opts)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps PRAGMAs and ":memory:" databases consistent.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %s: %w", pragma, err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	o.log.Info(ctx, "sqlite store ready", logger.String("path", path))
	return &SQLiteStore{db: db, log: o.log}, nil
}

func (s *SQLiteStore) EnsureUser(ctx context.Context, userID string) (err error) {
	defer observe(driverSQLite, "ensure_user", time.Now(), &err)
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, manager_skill) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		userID, DefaultManagerSkill)
	return err
}

func (s *SQLiteStore) UserExists(ctx context.Context, userID string) (ok bool, err error) {
	defer observe(driverSQLite, "user_exists", time.Now(), &err)
	var n int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE id = ?`, userID).Scan(&n)
	return n > 0, err
}

func (s *SQLiteStore) UpsertClub(ctx context.Context, club model.Club) (err error) {
	if club.OwnerID == "" || club.Name == "" {
		return fmt.Errorf("%w: club needs an owner and a name", ErrInvalidInput)
	}
	if err := s.EnsureUser(ctx, club.OwnerID); err != nil {
		return err
	}
	defer observe(driverSQLite, "upsert_club", time.Now(), &err)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO clubs (owner_id, name, code, crest, formation) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			name = excluded.name, code = excluded.code,
			crest = excluded.crest, formation = excluded.formation`,
		club.OwnerID, club.Name, club.Code, club.Crest, club.Formation)
	return err
}

func (s *SQLiteStore) Club(ctx context.Context, ownerID string) (c model.Club, ok bool, err error) {
	defer observe(driverSQLite, "club", time.Now(), &err)
	err = s.db.QueryRowContext(ctx,
		`SELECT owner_id, name, code, crest, formation FROM clubs WHERE owner_id = ?`, ownerID,
	).Scan(&c.OwnerID, &c.Name, &c.Code, &c.Crest, &c.Formation)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Club{}, false, nil
	}
	if err != nil {
		return model.Club{}, false, err
	}
	return c, true, nil
}

func (s *SQLiteStore) SetLineup(ctx context.Context, ownerID string, starters []model.RosterEntry) (written int, err error) {
	defer observe(driverSQLite, "set_lineup", time.Now(), &err)
	if _, ok, err := s.Club(ctx, ownerID); err != nil {
		return 0, err
	} else if !ok {
		return 0, fmt.Errorf("%w: %s", ErrClubNotFound, ownerID)
	}
	if _, err = s.db.ExecContext(ctx, `DELETE FROM lineup WHERE owner_id = ?`, ownerID); err != nil {
		return 0, err
	}
	for i, e := range starters {
		if verr := validEntry(e); verr != nil {
			s.log.Warn(ctx, "lineup row skipped", logger.String("owner_id", ownerID), logger.Int("slot", i), logger.Error(verr))
			continue
		}
		if _, rerr := s.db.ExecContext(ctx,
			`INSERT INTO lineup (owner_id, slot, name, position, position_full, overall) VALUES (?, ?, ?, ?, ?, ?)`,
			ownerID, i, e.Name, e.PositionShort, e.PositionFull, e.Overall,
		); rerr != nil {
			s.log.Warn(ctx, "lineup row failed", logger.String("owner_id", ownerID), logger.Int("slot", i), logger.Error(rerr))
			continue
		}
		written++
	}
	return written, nil
}

func (s *SQLiteStore) StartingEleven(ctx context.Context, ownerID string) (out []model.RosterEntry, err error) {
	defer observe(driverSQLite, "starting_eleven", time.Now(), &err)
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, position, position_full, overall FROM lineup WHERE owner_id = ? ORDER BY slot`, ownerID)
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

func (s *SQLiteStore) ManagerSkill(ctx context.Context, userID string) (skill int, err error) {
	defer observe(driverSQLite, "manager_skill", time.Now(), &err)
	err = s.db.QueryRowContext(ctx, `SELECT manager_skill FROM users WHERE id = ?`, userID).Scan(&skill)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultManagerSkill, nil
	}
	return skill, err
}

func (s *SQLiteStore) AdjustManagerSkill(ctx context.Context, userID string, won bool) (skill int, err error) {
	defer observe(driverSQLite, "adjust_skill", time.Now(), &err)
	delta := -1
	if won {
		delta = 1
	}
	err = s.db.QueryRowContext(ctx,
		`UPDATE users SET manager_skill = MAX(0, MIN(100, manager_skill + ?)) WHERE id = ? RETURNING manager_skill`,
		delta, userID,
	).Scan(&skill)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return skill, err
}

func (s *SQLiteStore) SaveOutcome(ctx context.Context, outcome *model.MatchOutcome) (err error) {
	defer observe(driverSQLite, "save_outcome", time.Now(), &err)
	if outcome == nil || outcome.ID == "" {
		return fmt.Errorf("%w: outcome needs an id", ErrInvalidInput)
	}
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (id, mode, side1_id, side2_id, side1_goals, side2_goals, winner_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		outcome.ID, string(outcome.Mode), outcome.Side1.ParticipantID, outcome.Side2.ParticipantID,
		outcome.Side1Goals, outcome.Side2Goals, outcome.WinnerID, string(payload),
		outcome.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: match %s", ErrOutcomeExists, outcome.ID)
	}
	return nil
}

func (s *SQLiteStore) Outcome(ctx context.Context, matchID string) (o *model.MatchOutcome, err error) {
	defer observe(driverSQLite, "outcome", time.Now(), &err)
	var payload string
	err = s.db.QueryRowContext(ctx, `SELECT payload FROM outcomes WHERE id = ?`, matchID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	if err != nil {
		return nil, err
	}
	return decodeOutcome([]byte(payload))
}

func (s *SQLiteStore) FindOpponentBySkill(ctx context.Context, excludeID string, skill, window int) (id string, ok bool, err error) {
	defer observe(driverSQLite, "find_opponent", time.Now(), &err)
	err = s.db.QueryRowContext(ctx, `
		SELECT u.id FROM users u JOIN clubs c ON c.owner_id = u.id
		WHERE u.id <> ? AND u.manager_skill BETWEEN ? AND ?
		ORDER BY u.id LIMIT 1`,
		excludeID, skill-window, skill+window,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *SQLiteStore) TopManagers(ctx context.Context, n int) (out []model.ManagerRating, err error) {
	defer observe(driverSQLite, "top_managers", time.Now(), &err)
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, manager_skill FROM users ORDER BY manager_skill DESC, id ASC LIMIT ?`, n)
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

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeOutcome(payload []byte) (*model.MatchOutcome, error) {
	var o model.MatchOutcome
	if err := json.Unmarshal(payload, &o); err != nil {
		return nil, fmt.Errorf("decode outcome: %w", err)
	}
	return &o, nil
}
