// Package api exposes the match engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/okian/matchday/internal/adapters/http/swagger"
	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/domain/formation"
	"github.com/okian/matchday/internal/domain/live"
	"github.com/okian/matchday/internal/domain/matchmaking"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. *service.Service implements it.
type Dependencies interface {
	SimulateBot(ctx context.Context, requesterID string) (*model.MatchOutcome, error)
	PlayRanked(ctx context.Context, requesterID string) (*model.MatchOutcome, error)
	Challenge(ctx context.Context, requesterID, opponentID string, mode model.Mode) (*model.MatchOutcome, error)
	ComputeStrength(ctx context.Context, starters []model.RosterEntry) (model.TeamStrength, error)
	Outcome(ctx context.Context, matchID string) (*model.MatchOutcome, error)

	EnqueueForMatch(ctx context.Context, participantID string) (matchmaking.Entry, error)
	LeaveQueue(ctx context.Context, participantID string) bool
	PollForOpponent(ctx context.Context, participantID string) (service.PollResult, error)
	ClearStaged(ctx context.Context, matchID, participantID string) error

	PauseMatch(ctx context.Context, matchID, participantID string) (live.PauseResult, error)
	ResumeMatch(ctx context.Context, matchID, participantID string) (live.PauseResult, error)
	MatchStatus(ctx context.Context, matchID, participantID string) (live.Status, error)
	MarkHalftime(ctx context.Context, matchID, participantID string) error
	SignalHalftimeReady(ctx context.Context, matchID, participantID string) (live.HalftimeResult, error)

	SaveClub(ctx context.Context, club model.Club) (model.Club, error)
	SetLineup(ctx context.Context, ownerID string, starters []model.RosterEntry) (int, error)
	Club(ctx context.Context, ownerID string) (service.ClubView, error)
	Formation(name string) (string, []formation.Slot)
	Leaderboard(ctx context.Context, limit int) ([]model.ManagerRating, error)
	MaxLeaderboardLimit() int

	StatsProvider
}

var _ Dependencies = (*service.Service)(nil)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithJWTSecret enables bearer-token authentication. Without a secret the
// server trusts the X-User-ID header.
func WithJWTSecret(secret string) Option {
	return func(s *Server) {
		s.auth.secret = []byte(secret)
	}
}

// WithAllowedOrigins sets the CORS allowed origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the match API.
type Server struct {
	deps    Dependencies
	auth    authenticator
	origins []string
	logger  logger.Logger

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:    deps,
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.leaderboardHandler = NewLeaderboardHandler(deps, deps.MaxLeaderboardLimit())
	return s
}

// Handler returns the full handler chain: CORS around the router.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := mux.NewRouter()
	s.Register(ctx, r)
	swagger.Register(ctx, r)
	if s.auth.devMode() {
		s.logger.Warn(ctx, "no jwt secret configured, trusting "+DevUserHeader+" header")
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", DevUserHeader},
	}).Handler(r)
}

// Register attaches all API routes to r.
func (s *Server) Register(_ context.Context, r *mux.Router) {
	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	route := func(method, path, endpoint string, h http.HandlerFunc, authed bool) {
		if authed {
			h = s.auth.require(h)
		}
		v1.HandleFunc(path, MetricsMiddleware(h, endpoint)).Methods(method)
	}

	route(http.MethodPost, "/strength", "strength", s.handleStrength, false)
	route(http.MethodGet, "/formations/{name}", "formation", s.handleFormation, false)
	route(http.MethodGet, "/leaderboard", "leaderboard", s.leaderboardHandler.HandleGetLeaderboard, false)

	route(http.MethodPost, "/matches/bot", "match_bot", s.handleBotMatch, true)
	route(http.MethodPost, "/matches/ranked", "match_ranked", s.handleRankedMatch, true)
	route(http.MethodPost, "/matches/challenge", "match_challenge", s.handleChallenge, true)
	route(http.MethodGet, "/matches/{id}", "match_get", s.handleGetMatch, true)
	route(http.MethodGet, "/matches/{id}/status", "match_status", s.handleStatus, true)
	route(http.MethodPost, "/matches/{id}/pause", "match_pause", s.handlePause, true)
	route(http.MethodPost, "/matches/{id}/resume", "match_resume", s.handleResume, true)
	route(http.MethodPost, "/matches/{id}/halftime", "match_halftime", s.handleHalftime, true)
	route(http.MethodPost, "/matches/{id}/halftime/ready", "match_ready", s.handleReady, true)
	route(http.MethodDelete, "/matches/{id}/live", "match_clear", s.handleClear, true)

	route(http.MethodPost, "/matchmaking", "matchmaking_join", s.handleEnqueue, true)
	route(http.MethodDelete, "/matchmaking", "matchmaking_leave", s.handleLeave, true)
	route(http.MethodGet, "/matchmaking", "matchmaking_poll", s.handlePoll, true)

	route(http.MethodPut, "/club", "club_save", s.handleSaveClub, true)
	route(http.MethodGet, "/club", "club_get", s.handleGetClub, true)
	route(http.MethodPut, "/club/lineup", "club_lineup", s.handleSetLineup, true)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil && status != http.StatusInternalServerError {
		msg = err.Error()
	}
	if status == http.StatusInternalServerError {
		logger.Get().Error(context.Background(), "request failed", logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func caller(r *http.Request) string {
	id, _ := UserID(r.Context())
	return id
}
