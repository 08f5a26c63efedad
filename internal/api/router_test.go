package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/api"
	"github.com/hackgods/care-booking/internal/appointment"
	"github.com/hackgods/care-booking/internal/auth"
	"github.com/hackgods/care-booking/internal/catalog"
	"github.com/hackgods/care-booking/internal/payment"
	"github.com/hackgods/care-booking/internal/stats"
	"github.com/hackgods/care-booking/internal/testkit"
)

type testServer struct {
	srv    *httptest.Server
	actors *actor.Service
}

func newTestServer(t *testing.T, successRate float64) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := testkit.OpenStore(t)

	tokens := auth.NewTokenManager("test-secret", "care-booking-test", time.Hour)
	actors := actor.NewService(store, tokens, logger)
	appointments := appointment.NewService(store, nil, logger)
	gateway := payment.NewSimulatedGateway(0, successRate, rand.NewSource(1))
	payments := payment.NewService(store, appointments, gateway, time.Second, logger)

	handler := api.NewRouter(api.RouterConfig{
		Actors:       actors,
		Appointments: appointments,
		Payments:     payments,
		Catalog:      catalog.NewService(store, logger),
		Stats:        stats.NewService(store, appointments),
		Gate:         auth.NewGate(tokens),
		HealthChecks: []api.HealthCheck{
			{Name: "store", Check: store.Ping, Critical: true},
			{Name: "cache", Check: func(context.Context) error { return errors.New("down") }},
		},
		Logger:  logger,
		Env:     "test",
		Version: "test",
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, actors: actors}
}

// call sends body as JSON and decodes the response into out when non-nil.
func (ts *testServer) call(t *testing.T, method, path, token string, body, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp
}

func (ts *testServer) register(t *testing.T, email, role string, fee *float64) api.AuthResponse {
	t.Helper()
	var out api.AuthResponse
	resp := ts.call(t, http.MethodPost, "/auth/register", "", api.RegisterRequest{
		Name:     "Test " + role,
		Email:    email,
		Password: "password123",
		Role:     role,
		BaseFee:  fee,
	}, &out)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, resp.StatusCode)
	}
	return out
}

func (ts *testServer) admin(t *testing.T) string {
	t.Helper()
	_, token, err := ts.actors.Register(context.Background(), actor.RegisterInput{
		Name:     "Admin",
		Email:    "admin@example.test",
		Password: "password123",
		Role:     string(actor.RoleAdmin),
	})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	return token
}

func fee(v float64) *float64 { return &v }

func TestRegisterRejectsAdminRole(t *testing.T) {
	ts := newTestServer(t, 1)

	var out api.ErrorResponse
	resp := ts.call(t, http.MethodPost, "/auth/register", "", api.RegisterRequest{
		Name:     "Mallory",
		Email:    "mallory@example.test",
		Password: "password123",
		Role:     "ADMIN",
	}, &out)
	if resp.StatusCode != http.StatusBadRequest || out.Error != "invalid_role" {
		t.Fatalf("got %d %q, want 400 invalid_role", resp.StatusCode, out.Error)
	}
}

func TestLoginAndDuplicateEmail(t *testing.T) {
	ts := newTestServer(t, 1)
	ts.register(t, "ana@example.test", "REQUESTER", nil)

	var login api.AuthResponse
	resp := ts.call(t, http.MethodPost, "/auth/login", "", api.LoginRequest{
		Email:    "ANA@example.test",
		Password: "password123",
	}, &login)
	if resp.StatusCode != http.StatusOK || login.Token == "" {
		t.Fatalf("login: status %d, token %q", resp.StatusCode, login.Token)
	}

	resp = ts.call(t, http.MethodPost, "/auth/login", "", api.LoginRequest{
		Email:    "ana@example.test",
		Password: "wrong-password",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: status %d, want 401", resp.StatusCode)
	}

	var out api.ErrorResponse
	resp = ts.call(t, http.MethodPost, "/auth/register", "", api.RegisterRequest{
		Name:     "Ana again",
		Email:    "ana@example.test",
		Password: "password123",
		Role:     "REQUESTER",
	}, &out)
	if resp.StatusCode != http.StatusConflict || out.Error != "email_taken" {
		t.Fatalf("duplicate: got %d %q, want 409 email_taken", resp.StatusCode, out.Error)
	}
}

func TestBookingPaymentAndRefundFlow(t *testing.T) {
	ts := newTestServer(t, 1)
	adminToken := ts.admin(t)
	alice := ts.register(t, "alice@example.test", "REQUESTER", nil)
	bob := ts.register(t, "bob@example.test", "REQUESTER", nil)
	doc := ts.register(t, "doc@example.test", "PROVIDER", fee(100))

	book := api.BookAppointmentRequest{
		RequesterID:     alice.Actor.ID.String(),
		ProviderID:      doc.Actor.ID.String(),
		AppointmentDate: "2031-05-20",
		AppointmentTime: "09:30",
	}

	if resp := ts.call(t, http.MethodPost, "/appointments", "", book, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", resp.StatusCode)
	}
	if resp := ts.call(t, http.MethodPost, "/appointments", doc.Token, book, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("provider booking: status %d, want 403", resp.StatusCode)
	}
	if resp := ts.call(t, http.MethodPost, "/appointments", bob.Token, book, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("booking for another requester: status %d, want 403", resp.StatusCode)
	}

	var appt api.AppointmentResponse
	resp := ts.call(t, http.MethodPost, "/appointments", alice.Token, book, &appt)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("book: status %d", resp.StatusCode)
	}
	if appt.Status != "SCHEDULED" || appt.PaymentStatus != "PENDING" || appt.ConsultationFee != 100 {
		t.Fatalf("booked = %+v", appt)
	}

	clash := book
	clash.RequesterID = bob.Actor.ID.String()
	var conflict api.ErrorResponse
	resp = ts.call(t, http.MethodPost, "/appointments", bob.Token, clash, &conflict)
	if resp.StatusCode != http.StatusBadRequest || conflict.Error != "slot_conflict" {
		t.Fatalf("conflict: got %d %q, want 400 slot_conflict", resp.StatusCode, conflict.Error)
	}

	if resp := ts.call(t, http.MethodGet, "/appointments/requester/"+alice.Actor.ID.String(), bob.Token, nil, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("reading another requester's list: status %d, want 403", resp.StatusCode)
	}
	if resp := ts.call(t, http.MethodGet, "/appointments", alice.Token, nil, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("requester listing all: status %d, want 403", resp.StatusCode)
	}

	var pay api.PaymentResponse
	resp = ts.call(t, http.MethodPost, "/payments/process", alice.Token, api.ProcessPaymentRequest{
		AppointmentID: appt.ID.String(),
		PaymentMethod: "CREDIT_CARD",
	}, &pay)
	if resp.StatusCode != http.StatusOK || pay.Status != "COMPLETED" || pay.Amount != 100 {
		t.Fatalf("process: status %d, payment %+v", resp.StatusCode, pay)
	}

	var paid api.AppointmentResponse
	ts.call(t, http.MethodGet, "/appointments/"+appt.ID.String(), alice.Token, nil, &paid)
	if paid.PaymentStatus != "PAID" {
		t.Fatalf("payment status = %s, want PAID", paid.PaymentStatus)
	}

	refundPath := "/payments/" + pay.ID.String() + "/refund"
	if resp := ts.call(t, http.MethodPost, refundPath, alice.Token, nil, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("requester refund: status %d, want 403", resp.StatusCode)
	}

	var notANumber api.ErrorResponse
	resp = ts.call(t, http.MethodPost, refundPath+"?amount=NaN", adminToken, nil, &notANumber)
	if resp.StatusCode != http.StatusBadRequest || notANumber.Error != "invalid_refund_amount" {
		t.Fatalf("NaN refund: got %d %q", resp.StatusCode, notANumber.Error)
	}

	var tooMuch api.ErrorResponse
	resp = ts.call(t, http.MethodPost, refundPath+"?amount=150", adminToken, nil, &tooMuch)
	if resp.StatusCode != http.StatusBadRequest || tooMuch.Error != "invalid_refund_amount" {
		t.Fatalf("oversized refund: got %d %q", resp.StatusCode, tooMuch.Error)
	}

	var refunded api.PaymentResponse
	resp = ts.call(t, http.MethodPost, refundPath+"?reason=changed+plans", adminToken, nil, &refunded)
	if resp.StatusCode != http.StatusOK || refunded.Status != "REFUNDED" {
		t.Fatalf("refund: status %d, payment %+v", resp.StatusCode, refunded)
	}
	if refunded.RefundAmount == nil || *refunded.RefundAmount != 100 {
		t.Fatalf("refund amount = %v, want 100", refunded.RefundAmount)
	}

	var again api.ErrorResponse
	resp = ts.call(t, http.MethodPost, refundPath, adminToken, nil, &again)
	if resp.StatusCode != http.StatusBadRequest || again.Error != "invalid_state" {
		t.Fatalf("second refund: got %d %q", resp.StatusCode, again.Error)
	}
}

func TestDeclinedPaymentReturnsFailedBody(t *testing.T) {
	ts := newTestServer(t, 0)
	alice := ts.register(t, "alice@example.test", "REQUESTER", nil)
	doc := ts.register(t, "doc@example.test", "PROVIDER", fee(80))

	var appt api.AppointmentResponse
	ts.call(t, http.MethodPost, "/appointments", alice.Token, api.BookAppointmentRequest{
		RequesterID:     alice.Actor.ID.String(),
		ProviderID:      doc.Actor.ID.String(),
		AppointmentDate: "2031-05-21",
		AppointmentTime: "14:00",
	}, &appt)

	var pay api.PaymentResponse
	resp := ts.call(t, http.MethodPost, "/payments/process", alice.Token, api.ProcessPaymentRequest{
		AppointmentID: appt.ID.String(),
		PaymentMethod: "DEBIT_CARD",
	}, &pay)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	if pay.Status != "FAILED" || pay.FailureReason == nil {
		t.Fatalf("payment = %+v, want FAILED with a reason", pay)
	}
}

func TestRevenueUsesCamelCaseKeys(t *testing.T) {
	ts := newTestServer(t, 1)
	adminToken := ts.admin(t)

	today := time.Now().UTC()
	path := "/payments/revenue?startDate=" + today.AddDate(0, 0, -1).Format(time.DateOnly) +
		"&endDate=" + today.AddDate(0, 0, 1).Format(time.DateOnly)

	var raw map[string]any
	resp := ts.call(t, http.MethodGet, path, adminToken, nil, &raw)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	for _, key := range []string{"totalRevenue", "completedPayments", "failedPayments"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing %q in %v", key, raw)
		}
	}

	if resp := ts.call(t, http.MethodGet, "/payments/revenue", adminToken, nil, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing window: status %d, want 400", resp.StatusCode)
	}
}

func TestCatalogRequiresAdminToManage(t *testing.T) {
	ts := newTestServer(t, 1)
	adminToken := ts.admin(t)
	alice := ts.register(t, "alice@example.test", "REQUESTER", nil)

	req := api.CreateServiceRequest{
		Name:            "Morning yoga",
		Category:        "yoga",
		DurationMinutes: 45,
		Price:           20,
	}
	if resp := ts.call(t, http.MethodPost, "/wellness-services", alice.Token, req, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("requester create: status %d, want 403", resp.StatusCode)
	}

	var created api.ServiceResponse
	resp := ts.call(t, http.MethodPost, "/wellness-services", adminToken, req, &created)
	if resp.StatusCode != http.StatusCreated || created.Category != "YOGA" {
		t.Fatalf("create: status %d, service %+v", resp.StatusCode, created)
	}

	var listed []api.ServiceResponse
	ts.call(t, http.MethodGet, "/wellness-services?category=YOGA", alice.Token, nil, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("listed = %+v", listed)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, 1)

	resp := ts.call(t, http.MethodGet, "/health/live", "", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("live: status %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}

	var ready api.ReadinessResponse
	resp = ts.call(t, http.MethodGet, "/health/ready", "", nil, &ready)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ready: status %d", resp.StatusCode)
	}
	if ready.Status != "degraded" {
		t.Fatalf("ready status = %q, want degraded", ready.Status)
	}
	if ready.Dependencies["store"] != "ok" {
		t.Fatalf("dependencies = %v", ready.Dependencies)
	}
}
