package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/appointment"
	"github.com/hackgods/care-booking/internal/auth"
	"github.com/hackgods/care-booking/internal/catalog"
	"github.com/hackgods/care-booking/internal/payment"
)

// handleError maps service errors to HTTP responses. Unknown errors are
// logged and reported without details.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, payment.ErrPaymentNotFound):
		writeError(w, http.StatusNotFound, "payment_not_found", err.Error())
	case errors.Is(err, actor.ErrActorNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, catalog.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())

	case errors.Is(err, appointment.ErrRequesterNotFound):
		writeError(w, http.StatusBadRequest, "requester_not_found", err.Error())
	case errors.Is(err, appointment.ErrProviderNotFound):
		writeError(w, http.StatusBadRequest, "provider_not_found", err.Error())
	case errors.Is(err, appointment.ErrSlotConflict):
		writeError(w, http.StatusBadRequest, "slot_conflict", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, appointment.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.Is(err, payment.ErrInvalidState):
		writeError(w, http.StatusBadRequest, "invalid_state", err.Error())
	case errors.Is(err, payment.ErrInvalidRefundAmount):
		writeError(w, http.StatusBadRequest, "invalid_refund_amount", err.Error())
	case errors.Is(err, payment.ErrInvalidPayment):
		writeError(w, http.StatusBadRequest, "invalid_payment", err.Error())
	case errors.Is(err, payment.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_window", err.Error())

	case errors.Is(err, actor.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, actor.ErrInvalidActor), errors.Is(err, actor.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, actor.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, catalog.ErrInvalidService):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.Is(err, auth.ErrInvalidCredential):
		writeError(w, http.StatusUnauthorized, "invalid_credential", err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())

	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func forbidden(w http.ResponseWriter) {
	writeError(w, http.StatusForbidden, "forbidden", "you may only act on your own records")
}
