package api

import (
	"net/http"
)

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	entry, err := s.deps.EnqueueForMatch(r.Context(), caller(r))
	if err != nil {
		writeError(w, Wrap("api.matchmaking_join", err))
		return
	}
	writeJSON(w, http.StatusAccepted, entry)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	left := s.deps.LeaveQueue(r.Context(), caller(r))
	writeJSON(w, http.StatusOK, map[string]bool{"left": left})
}

// handlePoll returns idle, waiting or matched. Clients poll until matched.
func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.PollForOpponent(r.Context(), caller(r))
	if err != nil {
		writeError(w, Wrap("api.matchmaking_poll", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
