package api

import (
	"net/http"

	"github.com/hackgods/care-booking/internal/catalog"
)

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.catalog.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	out := make([]ServiceResponse, 0, len(services))
	for i := range services {
		out = append(out, toServiceResponse(&services[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getService(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	svc, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toServiceResponse(svc))
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	svc, err := s.catalog.Create(r.Context(), catalog.CreateInput{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toServiceResponse(svc))
}

func (s *Server) catalogStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.Catalog(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCatalogStats(st))
}
