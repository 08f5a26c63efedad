package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/appointment"
	"github.com/hackgods/care-booking/internal/auth"
	"github.com/hackgods/care-booking/internal/payment"
)

// processPayment answers 200 with a completed payment and 400 with the
// failed payment as body when the gateway declined or timed out.
func (s *Server) processPayment(w http.ResponseWriter, r *http.Request) {
	var req ProcessPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointment_id must be a valid UUID")
		return
	}

	appt, err := s.appointments.Get(r.Context(), appointmentID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if p, _ := auth.PrincipalFrom(r.Context()); !p.ActsFor(appt.RequesterID) {
		forbidden(w)
		return
	}

	pay, err := s.payments.Process(r.Context(), payment.ProcessInput{
		AppointmentID:  appointmentID,
		Amount:         req.Amount,
		Method:         req.PaymentMethod,
		CardLastFour:   req.CardLastFour,
		CardType:       req.CardType,
		BillingAddress: req.BillingAddress,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	status := http.StatusOK
	if pay.Status == payment.StatusFailed {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, toPaymentResponse(pay))
}

func (s *Server) refundPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	q := r.URL.Query()
	var amount *float64
	if v := q.Get("amount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			writeError(w, http.StatusBadRequest, "invalid_refund_amount", "amount must be a number")
			return
		}
		amount = &f
	}
	var reason *string
	if v := q.Get("reason"); v != "" {
		reason = &v
	}

	pay, err := s.payments.Refund(r.Context(), id, amount, reason)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponse(pay))
}

func (s *Server) revenue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseWindowBound(q.Get("startDate"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_start_date", err.Error())
		return
	}
	end, err := parseWindowBound(q.Get("endDate"), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_end_date", err.Error())
		return
	}

	rev, err := s.payments.Revenue(r.Context(), start, end)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RevenueResponse{
		TotalRevenue:      rev.TotalRevenue,
		CompletedPayments: rev.CompletedPayments,
		FailedPayments:    rev.FailedPayments,
	})
}

// parseWindowBound accepts RFC3339 or a plain date. A plain end date covers
// the whole day.
func parseWindowBound(v string, end bool) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("value is required")
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(appointment.DateLayout, v)
	if err != nil {
		return time.Time{}, errors.New("must be YYYY-MM-DD or RFC3339")
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func (s *Server) getPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	pay, err := s.payments.Get(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponse(pay))
}

func (s *Server) getPaymentByTransaction(w http.ResponseWriter, r *http.Request) {
	pay, err := s.payments.GetByTransactionID(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(pay))
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	f, ok := paymentFilter(w, r)
	if !ok {
		return
	}
	s.writePayments(w, r, f)
}

func (s *Server) listProviderPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if p, _ := auth.PrincipalFrom(r.Context()); !p.ActsFor(id) {
		forbidden(w)
		return
	}
	f, ok := paymentFilter(w, r)
	if !ok {
		return
	}
	f.ProviderID = &id
	s.writePayments(w, r, f)
}

func (s *Server) listRequesterPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if p, _ := auth.PrincipalFrom(r.Context()); !p.ActsFor(id) {
		forbidden(w)
		return
	}
	f, ok := paymentFilter(w, r)
	if !ok {
		return
	}
	f.RequesterID = &id
	s.writePayments(w, r, f)
}

func (s *Server) writePayments(w http.ResponseWriter, r *http.Request, f payment.Filter) {
	pays, err := s.payments.List(r.Context(), f)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponses(pays))
}

func paymentFilter(w http.ResponseWriter, r *http.Request) (payment.Filter, bool) {
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return payment.Filter{}, false
	}
	f := payment.Filter{Limit: limit, Offset: offset}

	if v := r.URL.Query().Get("status"); v != "" {
		st, err := payment.ParseStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
			return payment.Filter{}, false
		}
		f.Status = &st
	}
	return f, true
}
