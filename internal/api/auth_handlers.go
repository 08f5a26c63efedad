package api

import (
	"net/http"
	"time"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/appointment"
)

// register creates requester and provider accounts. Admin accounts are
// provisioned out of band.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	role, err := actor.ParseRole(req.Role)
	if err != nil || role == actor.RoleAdmin {
		writeError(w, http.StatusBadRequest, "invalid_role", "role must be REQUESTER or PROVIDER")
		return
	}

	var dob *time.Time
	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		t, err := time.Parse(appointment.DateLayout, *req.DateOfBirth)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date_of_birth", "date_of_birth must be YYYY-MM-DD")
			return
		}
		dob = &t
	}

	a, token, err := s.actors.Register(r.Context(), actor.RegisterInput{
		Name:              req.Name,
		Email:             req.Email,
		Password:          req.Password,
		Role:              string(role),
		Phone:             req.Phone,
		Specialty:         req.Specialty,
		LicenseNumber:     req.LicenseNumber,
		YearsOfExperience: req.YearsOfExperience,
		BaseFee:           req.BaseFee,
		Address:           req.Address,
		DateOfBirth:       dob,
		Gender:            req.Gender,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, Actor: toActorResponse(a)})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, token, err := s.actors.Login(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, Actor: toActorResponse(a)})
}
