package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/okian/matchday/internal/domain/formation"
	"github.com/okian/matchday/internal/domain/model"
)

type challengeRequest struct {
	OpponentID string `json:"opponent_id"`
	Mode       string `json:"mode"`
}

type startersRequest struct {
	Starters []model.RosterEntry `json:"starters"`
}

type formationResponse struct {
	Name  string           `json:"name"`
	Slots []formation.Slot `json:"slots"`
}

func (s *Server) handleBotMatch(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.SimulateBot(r.Context(), caller(r))
	if err != nil {
		writeError(w, Wrap("api.match_bot", err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRankedMatch(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.PlayRanked(r.Context(), caller(r))
	if err != nil {
		writeError(w, Wrap("api.match_ranked", err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	const op = "api.match_challenge"
	var req challengeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.OpponentID) == "" {
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("opponent_id is required")))
		return
	}
	mode := model.ModeFriendly
	if req.Mode != "" {
		m, err := model.ParseMode(req.Mode)
		if err != nil {
			writeError(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		mode = m
	}
	out, err := s.deps.Challenge(r.Context(), caller(r), req.OpponentID, mode)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Outcome(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, Wrap("api.match_get", err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.MatchStatus(r.Context(), mux.Vars(r)["id"], caller(r))
	if err != nil {
		writeError(w, Wrap("api.match_status", err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.PauseMatch(r.Context(), mux.Vars(r)["id"], caller(r))
	if err != nil {
		writeError(w, Wrap("api.match_pause", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.ResumeMatch(r.Context(), mux.Vars(r)["id"], caller(r))
	if err != nil {
		writeError(w, Wrap("api.match_resume", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHalftime(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.MarkHalftime(r.Context(), mux.Vars(r)["id"], caller(r)); err != nil {
		writeError(w, Wrap("api.match_halftime", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.SignalHalftimeReady(r.Context(), mux.Vars(r)["id"], caller(r))
	if err != nil {
		writeError(w, Wrap("api.match_ready", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.ClearStaged(r.Context(), mux.Vars(r)["id"], caller(r)); err != nil {
		writeError(w, Wrap("api.match_clear", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStrength(w http.ResponseWriter, r *http.Request) {
	const op = "api.strength"
	var req startersRequest
	if err := decode(r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	ts, err := s.deps.ComputeStrength(r.Context(), req.Starters)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

// handleFormation answers with the default formation for unknown names.
func (s *Server) handleFormation(w http.ResponseWriter, r *http.Request) {
	name, slots := s.deps.Formation(mux.Vars(r)["name"])
	writeJSON(w, http.StatusOK, formationResponse{Name: name, Slots: slots})
}
