package api

import (
	"net/http"

	"github.com/okian/matchday/internal/domain/model"
)

type clubRequest struct {
	Name      string `json:"name"`
	Code      string `json:"code"`
	Crest     string `json:"crest"`
	Formation string `json:"formation"`
}

type lineupResponse struct {
	Stored    int `json:"stored"`
	Requested int `json:"requested"`
}

func (s *Server) handleSaveClub(w http.ResponseWriter, r *http.Request) {
	const op = "api.club_save"
	var req clubRequest
	if err := decode(r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	club, err := s.deps.SaveClub(r.Context(), model.Club{
		OwnerID:   caller(r),
		Name:      req.Name,
		Code:      req.Code,
		Crest:     req.Crest,
		Formation: req.Formation,
	})
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, club)
}

func (s *Server) handleGetClub(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Club(r.Context(), caller(r))
	if err != nil {
		writeError(w, Wrap("api.club_get", err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSetLineup stores what it can; a short count is not an error.
func (s *Server) handleSetLineup(w http.ResponseWriter, r *http.Request) {
	const op = "api.club_lineup"
	var req startersRequest
	if err := decode(r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	n, err := s.deps.SetLineup(r.Context(), caller(r), req.Starters)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, lineupResponse{Stored: n, Requested: len(req.Starters)})
}
