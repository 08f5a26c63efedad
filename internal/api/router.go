package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/appointment"
	"github.com/hackgods/care-booking/internal/auth"
	"github.com/hackgods/care-booking/internal/catalog"
	"github.com/hackgods/care-booking/internal/payment"
	"github.com/hackgods/care-booking/internal/stats"
)

// Server holds the services the handlers call into.
type Server struct {
	actors       *actor.Service
	appointments *appointment.Service
	payments     *payment.Service
	catalog      *catalog.Service
	stats        *stats.Service
	logger       *zap.Logger
	now          func() time.Time
}

type RouterConfig struct {
	Actors       *actor.Service
	Appointments *appointment.Service
	Payments     *payment.Service
	Catalog      *catalog.Service
	Stats        *stats.Service
	Gate         *auth.Gate
	HealthChecks []HealthCheck
	Logger       *zap.Logger

	RateLimitRPS   float64
	RateLimitBurst int

	Env     string
	Version string

	// Now defaults to time.Now.
	Now func() time.Time
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		actors:       cfg.Actors,
		appointments: cfg.Appointments,
		payments:     cfg.Payments,
		catalog:      cfg.Catalog,
		stats:        cfg.Stats,
		logger:       logger,
		now:          now,
	}
	need := func(c auth.Capability) func(http.Handler) http.Handler {
		return RequireCapability(cfg.Gate, c)
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	if cfg.RateLimitRPS > 0 {
		r.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
	}

	health := NewHealthHandler(cfg.HealthChecks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.With(need(auth.AppointmentsListAll)).Get("/", s.listAppointments)
		r.With(need(auth.AppointmentsBook)).Post("/", s.bookAppointment)
		r.With(need(auth.AppointmentsListAll)).Get("/overdue", s.overdueAppointments)
		r.With(need(auth.StatsRead)).Get("/stats", s.appointmentStats)
		r.With(need(auth.AppointmentsListByProvider)).Get("/provider/{id}", s.listProviderAppointments)
		r.With(need(auth.AppointmentsListByRequester)).Get("/requester/{id}", s.listRequesterAppointments)
		r.With(need(auth.AppointmentsRead)).Get("/{id}", s.getAppointment)
		r.With(need(auth.AppointmentsUpdate)).Put("/{id}", s.updateAppointment)
		r.With(need(auth.AppointmentsSetStatus)).Put("/{id}/status", s.setAppointmentStatus)
		r.With(need(auth.AppointmentsCancel)).Delete("/{id}", s.cancelAppointment)
	})

	r.Route("/payments", func(r chi.Router) {
		r.With(need(auth.PaymentsListAll)).Get("/", s.listPayments)
		r.With(need(auth.PaymentsProcess)).Post("/process", s.processPayment)
		r.With(need(auth.PaymentsRevenue)).Get("/revenue", s.revenue)
		r.With(need(auth.PaymentsRead)).Get("/transaction/{transactionID}", s.getPaymentByTransaction)
		r.With(need(auth.PaymentsListByProvider)).Get("/provider/{id}", s.listProviderPayments)
		r.With(need(auth.PaymentsListByRequester)).Get("/requester/{id}", s.listRequesterPayments)
		r.With(need(auth.PaymentsRead)).Get("/{id}", s.getPayment)
		r.With(need(auth.PaymentsRefund)).Post("/{id}/refund", s.refundPayment)
	})

	r.Route("/users", func(r chi.Router) {
		r.With(need(auth.UsersListAll)).Get("/", s.listUsers)
		r.With(need(auth.StatsRead)).Get("/stats", s.userStats)
		r.With(need(auth.UsersRead)).Get("/{id}", s.getUser)
		r.With(need(auth.UsersDeactivate)).Delete("/{id}", s.deactivateUser)
	})
	r.With(need(auth.UsersRead)).Get("/providers", s.listProviders)

	r.Route("/wellness-services", func(r chi.Router) {
		r.With(need(auth.CatalogRead)).Get("/", s.listServices)
		r.With(need(auth.CatalogManage)).Post("/", s.createService)
		r.With(need(auth.StatsRead)).Get("/stats", s.catalogStats)
		r.With(need(auth.CatalogRead)).Get("/{id}", s.getService)
	})

	return otelhttp.NewHandler(r, "care-booking-api")
}
