package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/appointment"
	"github.com/hackgods/care-booking/internal/auth"
)

func (s *Server) bookAppointment(w http.ResponseWriter, r *http.Request) {
	var req BookAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	requesterID, err := uuid.Parse(req.RequesterID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_requester_id", "requester_id must be a valid UUID")
		return
	}
	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
		return
	}

	p, _ := auth.PrincipalFrom(r.Context())
	if !p.ActsFor(requesterID) {
		forbidden(w)
		return
	}

	appt, err := s.appointments.Book(r.Context(), appointment.BookInput{
		RequesterID:     requesterID,
		ProviderID:      providerID,
		Date:            req.AppointmentDate,
		Time:            req.AppointmentTime,
		Fee:             req.ConsultationFee,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (s *Server) getAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	appt, err := s.appointments.Get(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (s *Server) listAppointments(w http.ResponseWriter, r *http.Request) {
	f, ok := appointmentFilter(w, r)
	if !ok {
		return
	}
	s.writeAppointments(w, r, f)
}

func (s *Server) listProviderAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if p, _ := auth.PrincipalFrom(r.Context()); !p.ActsFor(id) {
		forbidden(w)
		return
	}
	f, ok := appointmentFilter(w, r)
	if !ok {
		return
	}
	f.ProviderID = &id
	s.writeAppointments(w, r, f)
}

func (s *Server) listRequesterAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if p, _ := auth.PrincipalFrom(r.Context()); !p.ActsFor(id) {
		forbidden(w)
		return
	}
	f, ok := appointmentFilter(w, r)
	if !ok {
		return
	}
	f.RequesterID = &id
	s.writeAppointments(w, r, f)
}

func (s *Server) writeAppointments(w http.ResponseWriter, r *http.Request, f appointment.Filter) {
	appts, err := s.appointments.List(r.Context(), f)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
}

func (s *Server) updateAppointment(w http.ResponseWriter, r *http.Request) {
	appt, ok := s.loadProviderAppointment(w, r)
	if !ok {
		return
	}

	var req UpdateAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := s.appointments.Update(r.Context(), appt.ID, appointment.UpdateInput{
		Date:            req.AppointmentDate,
		Time:            req.AppointmentTime,
		Status:          req.Status,
		Notes:           req.Notes,
		Fee:             req.ConsultationFee,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
}

func (s *Server) setAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	appt, ok := s.loadProviderAppointment(w, r)
	if !ok {
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		writeError(w, http.StatusBadRequest, "invalid_status", "status query parameter is required")
		return
	}

	updated, err := s.appointments.SetStatus(r.Context(), appt.ID, status)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
}

func (s *Server) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	appt, err := s.appointments.Get(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if p, _ := auth.PrincipalFrom(r.Context()); !p.ActsFor(appt.RequesterID, appt.ProviderID) {
		forbidden(w)
		return
	}

	cancelled, err := s.appointments.Cancel(r.Context(), id, r.URL.Query().Get("reason"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(cancelled))
}

func (s *Server) overdueAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := s.stats.Overdue(r.Context(), s.now())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
}

func (s *Server) appointmentStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.Appointments(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentStats(st))
}

// loadProviderAppointment loads the {id} appointment and checks that the
// caller is its provider or an admin.
func (s *Server) loadProviderAppointment(w http.ResponseWriter, r *http.Request) (*appointment.Appointment, bool) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return nil, false
	}

	appt, err := s.appointments.Get(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return nil, false
	}
	if p, _ := auth.PrincipalFrom(r.Context()); !p.ActsFor(appt.ProviderID) {
		forbidden(w)
		return nil, false
	}
	return appt, true
}

func appointmentFilter(w http.ResponseWriter, r *http.Request) (appointment.Filter, bool) {
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return appointment.Filter{}, false
	}
	f := appointment.Filter{Limit: limit, Offset: offset}

	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		st, err := appointment.ParseStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
			return appointment.Filter{}, false
		}
		f.Status = &st
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(appointment.DateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be YYYY-MM-DD")
			return appointment.Filter{}, false
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(appointment.DateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be YYYY-MM-DD")
			return appointment.Filter{}, false
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	return f, true
}
