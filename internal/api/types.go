package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/appointment"
	"github.com/hackgods/care-booking/internal/catalog"
	"github.com/hackgods/care-booking/internal/payment"
	"github.com/hackgods/care-booking/internal/stats"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Auth

type RegisterRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	Phone    *string `json:"phone,omitempty"`

	Specialty         *string  `json:"specialty,omitempty"`
	LicenseNumber     *string  `json:"license_number,omitempty"`
	YearsOfExperience *int     `json:"years_of_experience,omitempty"`
	BaseFee           *float64 `json:"base_fee,omitempty"`

	Address     *string `json:"address,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Gender      *string `json:"gender,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type AuthResponse struct {
	Token string        `json:"token"`
	Actor ActorResponse `json:"actor"`
}

type ActorResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             *string   `json:"phone,omitempty"`
	Role              string    `json:"role"`
	Active            bool      `json:"active"`
	Specialty         *string   `json:"specialty,omitempty"`
	LicenseNumber     *string   `json:"license_number,omitempty"`
	YearsOfExperience *int      `json:"years_of_experience,omitempty"`
	BaseFee           *float64  `json:"base_fee,omitempty"`
	Address           *string   `json:"address,omitempty"`
	DateOfBirth       *string   `json:"date_of_birth,omitempty"`
	Gender            *string   `json:"gender,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func toActorResponse(a *actor.Actor) ActorResponse {
	resp := ActorResponse{
		ID:                a.ID,
		Name:              a.Name,
		Email:             a.Email,
		Phone:             a.Phone,
		Role:              string(a.Role),
		Active:            a.Active,
		Specialty:         a.Specialty,
		LicenseNumber:     a.LicenseNumber,
		YearsOfExperience: a.YearsOfExperience,
		BaseFee:           a.BaseFee,
		Address:           a.Address,
		CreatedAt:         a.CreatedAt,
	}
	if a.DateOfBirth != nil {
		dob := a.DateOfBirth.Format(appointment.DateLayout)
		resp.DateOfBirth = &dob
	}
	if a.Gender != nil {
		g := string(*a.Gender)
		resp.Gender = &g
	}
	return resp
}

func toActorResponses(in []actor.Actor) []ActorResponse {
	out := make([]ActorResponse, 0, len(in))
	for i := range in {
		out = append(out, toActorResponse(&in[i]))
	}
	return out
}

// Appointments

type BookAppointmentRequest struct {
	RequesterID     string  `json:"requester_id"`
	ProviderID      string  `json:"provider_id"`
	AppointmentDate string  `json:"appointment_date"`
	AppointmentTime string  `json:"appointment_time"`
	ConsultationFee float64 `json:"consultation_fee,omitempty"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

type UpdateAppointmentRequest struct {
	AppointmentDate *string  `json:"appointment_date,omitempty"`
	AppointmentTime *string  `json:"appointment_time,omitempty"`
	Status          *string  `json:"status,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
	ConsultationFee *float64 `json:"consultation_fee,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
}

type AppointmentResponse struct {
	ID                 uuid.UUID `json:"id"`
	RequesterID        uuid.UUID `json:"requester_id"`
	ProviderID         uuid.UUID `json:"provider_id"`
	AppointmentDate    string    `json:"appointment_date"`
	AppointmentTime    string    `json:"appointment_time"`
	DurationMinutes    int       `json:"duration_minutes"`
	Status             string    `json:"status"`
	PaymentStatus      string    `json:"payment_status"`
	ConsultationFee    float64   `json:"consultation_fee"`
	Notes              *string   `json:"notes,omitempty"`
	CancellationReason *string   `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                 a.ID,
		RequesterID:        a.RequesterID,
		ProviderID:         a.ProviderID,
		AppointmentDate:    a.Date(),
		AppointmentTime:    a.Time(),
		DurationMinutes:    a.DurationMinutes,
		Status:             string(a.Status),
		PaymentStatus:      string(a.PaymentStatus),
		ConsultationFee:    a.ConsultationFee,
		Notes:              a.Notes,
		CancellationReason: a.CancellationReason,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func toAppointmentResponses(in []appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(in))
	for i := range in {
		out = append(out, toAppointmentResponse(&in[i]))
	}
	return out
}

type AppointmentStatsResponse struct {
	Total           int64            `json:"total"`
	ByStatus        map[string]int64 `json:"by_status"`
	ByPaymentStatus map[string]int64 `json:"by_payment_status"`
}

func toAppointmentStats(s stats.AppointmentStats) AppointmentStatsResponse {
	resp := AppointmentStatsResponse{
		Total:           s.Total,
		ByStatus:        make(map[string]int64, len(s.ByStatus)),
		ByPaymentStatus: make(map[string]int64, len(s.ByPaymentStatus)),
	}
	for k, v := range s.ByStatus {
		resp.ByStatus[string(k)] = v
	}
	for k, v := range s.ByPaymentStatus {
		resp.ByPaymentStatus[string(k)] = v
	}
	return resp
}

// Payments

type ProcessPaymentRequest struct {
	AppointmentID  string  `json:"appointment_id"`
	Amount         float64 `json:"amount,omitempty"`
	PaymentMethod  string  `json:"payment_method"`
	CardLastFour   *string `json:"card_last_four,omitempty"`
	CardType       *string `json:"card_type,omitempty"`
	BillingAddress *string `json:"billing_address,omitempty"`
}

type PaymentResponse struct {
	ID             uuid.UUID  `json:"id"`
	AppointmentID  uuid.UUID  `json:"appointment_id"`
	RequesterID    uuid.UUID  `json:"requester_id"`
	ProviderID     uuid.UUID  `json:"provider_id"`
	Amount         float64    `json:"amount"`
	PaymentMethod  string     `json:"payment_method"`
	TransactionID  string     `json:"transaction_id"`
	CardLastFour   *string    `json:"card_last_four,omitempty"`
	CardType       *string    `json:"card_type,omitempty"`
	BillingAddress *string    `json:"billing_address,omitempty"`
	Status         string     `json:"status"`
	FailureReason  *string    `json:"failure_reason,omitempty"`
	RefundAmount   *float64   `json:"refund_amount,omitempty"`
	RefundReason   *string    `json:"refund_reason,omitempty"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		AppointmentID:  p.AppointmentID,
		RequesterID:    p.RequesterID,
		ProviderID:     p.ProviderID,
		Amount:         p.Amount,
		PaymentMethod:  string(p.Method),
		TransactionID:  p.TransactionID,
		CardLastFour:   p.CardLastFour,
		CardType:       p.CardType,
		BillingAddress: p.BillingAddress,
		Status:         string(p.Status),
		FailureReason:  p.FailureReason,
		RefundAmount:   p.RefundAmount,
		RefundReason:   p.RefundReason,
		ProcessedAt:    p.ProcessedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toPaymentResponses(in []payment.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(in))
	for i := range in {
		out = append(out, toPaymentResponse(&in[i]))
	}
	return out
}

// RevenueResponse keeps the camelCase keys existing dashboards read.
type RevenueResponse struct {
	TotalRevenue      float64 `json:"totalRevenue"`
	CompletedPayments int64   `json:"completedPayments"`
	FailedPayments    int64   `json:"failedPayments"`
}

// Users

type RoleCountResponse struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type UserStatsResponse struct {
	Total  int64                        `json:"total"`
	Active int64                        `json:"active"`
	ByRole map[string]RoleCountResponse `json:"by_role"`
}

func toUserStats(s stats.UserStats) UserStatsResponse {
	resp := UserStatsResponse{
		Total:  s.Total,
		Active: s.Active,
		ByRole: make(map[string]RoleCountResponse, len(s.ByRole)),
	}
	for role, c := range s.ByRole {
		resp.ByRole[string(role)] = RoleCountResponse{Total: c.Total, Active: c.Active}
	}
	return resp
}

// Catalog

type CreateServiceRequest struct {
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	Category        string  `json:"category"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	MaxParticipants *int    `json:"max_participants,omitempty"`
}

type ServiceResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Description         *string   `json:"description,omitempty"`
	Category            string    `json:"category"`
	DurationMinutes     int       `json:"duration_minutes"`
	Price               float64   `json:"price"`
	Active              bool      `json:"active"`
	MaxParticipants     *int      `json:"max_participants,omitempty"`
	CurrentParticipants int       `json:"current_participants"`
	CreatedAt           time.Time `json:"created_at"`
}

func toServiceResponse(s *catalog.WellnessService) ServiceResponse {
	return ServiceResponse{
		ID:                  s.ID,
		Name:                s.Name,
		Description:         s.Description,
		Category:            string(s.Category),
		DurationMinutes:     s.DurationMinutes,
		Price:               s.Price,
		Active:              s.Active,
		MaxParticipants:     s.MaxParticipants,
		CurrentParticipants: s.CurrentParticipants,
		CreatedAt:           s.CreatedAt,
	}
}

type CatalogStatsResponse struct {
	Total      int64            `json:"total"`
	ByCategory map[string]int64 `json:"by_category"`
}

func toCatalogStats(s stats.CatalogStats) CatalogStatsResponse {
	resp := CatalogStatsResponse{Total: s.Total, ByCategory: make(map[string]int64, len(s.ByCategory))}
	for k, v := range s.ByCategory {
		resp.ByCategory[string(k)] = v
	}
	return resp
}
