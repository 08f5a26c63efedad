package api

import (
	"net/http"
	"strconv"

	"github.com/hackgods/care-booking/internal/actor"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return
	}
	f := actor.Filter{Limit: limit, Offset: offset}

	q := r.URL.Query()
	if v := q.Get("role"); v != "" {
		role, err := actor.ParseRole(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_role", err.Error())
			return
		}
		f.Role = &role
	}
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_active", "active must be true or false")
			return
		}
		f.ActiveOnly = active
	}

	s.writeActors(w, r, f)
}

// listProviders is the directory every signed in user can browse.
func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return
	}
	role := actor.RoleProvider
	f := actor.Filter{Role: &role, ActiveOnly: true, Limit: limit, Offset: offset}
	if v := r.URL.Query().Get("specialty"); v != "" {
		f.Specialty = &v
	}
	s.writeActors(w, r, f)
}

func (s *Server) writeActors(w http.ResponseWriter, r *http.Request, f actor.Filter) {
	actors, err := s.actors.List(r.Context(), f)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActorResponses(actors))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	a, err := s.actors.Get(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActorResponse(a))
}

func (s *Server) deactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	a, err := s.actors.Deactivate(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActorResponse(a))
}

func (s *Server) userStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.Users(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserStats(st))
}
