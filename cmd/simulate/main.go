package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hackgods/care-booking/internal/api"
	"github.com/hackgods/care-booking/internal/appointment"
)

type SimConfig struct {
	APIBaseURL   string        `env:"SIM_API_BASE_URL" envDefault:"http://localhost:8080"`
	Duration     time.Duration `env:"SIM_DURATION" envDefault:"30s"`
	Workers      int           `env:"SIM_WORKERS" envDefault:"10"`
	Requesters   int           `env:"SIM_REQUESTERS" envDefault:"20"`
	Days         int           `env:"SIM_DAYS" envDefault:"3"`
	BookingRatio float64       `env:"SIM_BOOKING_RATIO" envDefault:"0.5"`
	PayRatio     float64       `env:"SIM_PAY_RATIO" envDefault:"0.2"`
	ReadRatio    float64       `env:"SIM_READ_RATIO" envDefault:"0.3"`
}

type session struct {
	id    uuid.UUID
	token string
}

// DataPool holds the sessions and the appointments created during the run.
type DataPool struct {
	Requesters []session
	Providers  []uuid.UUID

	mu           sync.RWMutex
	appointments []bookedAppointment
}

type bookedAppointment struct {
	id    uuid.UUID
	owner session
}

func (dp *DataPool) AddAppointment(b bookedAppointment) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, b)
}

func (dp *DataPool) RandomAppointment(rng *rand.Rand) (bookedAppointment, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return bookedAppointment{}, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95, max time.Duration) {
	om.mu.Lock()
	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	max = latencies[len(latencies)-1]
	return avg, p50, p95, max
}

type Metrics struct {
	Booking          OperationMetrics
	Payment          OperationMetrics
	ReadByID         OperationMetrics
	ListByRequester  OperationMetrics
	declinedPayments int64
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	base    time.Time
	logger  *zap.Logger
}

func main() {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	_ = godotenv.Load()
	var cfg SimConfig
	if err := env.Parse(&cfg); err != nil {
		logger.Fatal("parse env", zap.Error(err))
	}
	if err := validateConfig(&cfg); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	logger.Info("simulator starting",
		zap.String("api", cfg.APIBaseURL),
		zap.Duration("duration", cfg.Duration),
		zap.Int("workers", cfg.Workers),
		zap.Float64("booking_ratio", cfg.BookingRatio),
		zap.Float64("pay_ratio", cfg.PayRatio),
		zap.Float64("read_ratio", cfg.ReadRatio),
	)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		base:   time.Now().UTC().AddDate(0, 0, 1),
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	pool, err := sim.prepare(ctx)
	cancel()
	if err != nil {
		logger.Fatal("prepare data pool", zap.Error(err))
	}
	sim.pool = pool
	logger.Info("data pool ready",
		zap.Int("requesters", len(pool.Requesters)),
		zap.Int("providers", len(pool.Providers)),
	)

	sim.Run()
	sim.PrintReport()
}

func validateConfig(cfg *SimConfig) error {
	if cfg.Workers <= 0 {
		return errors.New("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return errors.New("SIM_DURATION must be > 0")
	}
	if cfg.Requesters <= 0 || cfg.Days <= 0 {
		return errors.New("SIM_REQUESTERS and SIM_DAYS must be > 0")
	}

	total := cfg.BookingRatio + cfg.PayRatio + cfg.ReadRatio
	if total <= 0 {
		return errors.New("at least one ratio must be positive")
	}
	cfg.BookingRatio /= total
	cfg.PayRatio /= total
	cfg.ReadRatio /= total
	return nil
}

// prepare registers fresh requesters and loads the provider directory.
func (s *Simulator) prepare(ctx context.Context) (*DataPool, error) {
	pool := &DataPool{}
	runID := uuid.NewString()[:8]

	for i := 0; i < s.config.Requesters; i++ {
		var resp api.AuthResponse
		status, err := s.do(ctx, http.MethodPost, "/auth/register", "", api.RegisterRequest{
			Name:     fmt.Sprintf("Sim Requester %d", i),
			Email:    fmt.Sprintf("sim-%s-%d@care-booking.local", runID, i),
			Password: "simulate-pass",
			Role:     "REQUESTER",
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("register requester: %w", err)
		}
		if status != http.StatusCreated {
			return nil, fmt.Errorf("register requester: status %d", status)
		}
		pool.Requesters = append(pool.Requesters, session{id: resp.Actor.ID, token: resp.Token})
	}

	var providers []api.ActorResponse
	status, err := s.do(ctx, http.MethodGet, "/providers?limit=200", pool.Requesters[0].token, nil, &providers)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list providers: status %d", status)
	}
	for _, p := range providers {
		pool.Providers = append(pool.Providers, p.ID)
	}
	if len(pool.Providers) == 0 {
		return nil, errors.New("no providers found, run cmd/seed first")
	}
	return pool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.logger.Info("simulation running")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < s.config.BookingRatio:
			s.doBooking(ctx, rng)
		case r < s.config.BookingRatio+s.config.PayRatio:
			s.doPayment(ctx, rng)
		case rng.Intn(2) == 0:
			s.doReadByID(ctx, rng)
		default:
			s.doListByRequester(ctx, rng)
		}
	}
}

// doBooking aims at a small grid of half hour slots so workers collide.
func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	who := s.pool.Requesters[rng.Intn(len(s.pool.Requesters))]
	provider := s.pool.Providers[rng.Intn(len(s.pool.Providers))]
	day := s.base.AddDate(0, 0, rng.Intn(s.config.Days))
	slot := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC).
		Add(time.Duration(rng.Intn(16)) * 30 * time.Minute)

	start := time.Now()
	var resp api.AppointmentResponse
	var apiErr api.ErrorResponse
	status, err := s.doErr(ctx, http.MethodPost, "/appointments", who.token, api.BookAppointmentRequest{
		RequesterID:     who.id.String(),
		ProviderID:      provider.String(),
		AppointmentDate: slot.Format(appointment.DateLayout),
		AppointmentTime: slot.Format(appointment.TimeLayout),
	}, &resp, &apiErr)
	latency := time.Since(start)

	success := err == nil && status == http.StatusOK
	conflict := err == nil && apiErr.Error == "slot_conflict"
	if success {
		s.pool.AddAppointment(bookedAppointment{id: resp.ID, owner: who})
	}
	s.metrics.Booking.Record(latency, success, conflict)
}

// doPayment counts a gateway decline as a handled outcome, not an error.
func (s *Simulator) doPayment(ctx context.Context, rng *rand.Rand) {
	b, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	var resp api.PaymentResponse
	status, err := s.do(ctx, http.MethodPost, "/payments/process", b.owner.token, api.ProcessPaymentRequest{
		AppointmentID: b.id.String(),
		PaymentMethod: "CREDIT_CARD",
	}, &resp)
	latency := time.Since(start)

	success := err == nil && status == http.StatusOK
	declined := err == nil && status == http.StatusBadRequest && resp.Status == "FAILED"
	if declined {
		atomic.AddInt64(&s.metrics.declinedPayments, 1)
	}
	s.metrics.Payment.Record(latency, success || declined, false)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	b, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	status, err := s.do(ctx, http.MethodGet, "/appointments/"+b.id.String(), b.owner.token, nil, nil)
	s.metrics.ReadByID.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doListByRequester(ctx context.Context, rng *rand.Rand) {
	who := s.pool.Requesters[rng.Intn(len(s.pool.Requesters))]

	start := time.Now()
	status, err := s.do(ctx, http.MethodGet,
		fmt.Sprintf("/appointments/requester/%s?limit=20&offset=0", who.id), who.token, nil, nil)
	s.metrics.ListByRequester.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) do(ctx context.Context, method, path, token string, body, out any) (int, error) {
	return s.doErr(ctx, method, path, token, body, out, nil)
}

// doErr decodes 2xx bodies into out and error bodies into errOut. A 400 from
// payment processing carries a payment, so out is also tried there.
func (s *Simulator) doErr(ctx context.Context, method, path, token string, body, out any, errOut *api.ErrorResponse) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(s.config.APIBaseURL, "/")+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	switch {
	case resp.StatusCode < 300 || (resp.StatusCode == http.StatusBadRequest && errOut == nil):
		if out != nil {
			_ = dec.Decode(out)
		}
	case errOut != nil:
		_ = dec.Decode(errOut)
	}
	return resp.StatusCode, nil
}

func (s *Simulator) PrintReport() {
	line := strings.Repeat("=", 80)
	fmt.Println("\n" + line)
	fmt.Println("SIMULATION REPORT")
	fmt.Println(line)
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n\n", s.config.Workers)

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Payment", &s.metrics.Payment)
	if n := atomic.LoadInt64(&s.metrics.declinedPayments); n > 0 {
		fmt.Printf("  Declined by gateway: %d\n\n", n)
	}
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List by Requester", &s.metrics.ListByRequester)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)
	avg, p50, p95, max := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s p50=%s p95=%s max=%s\n\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond),
		p95.Round(time.Millisecond), max.Round(time.Millisecond))
}
