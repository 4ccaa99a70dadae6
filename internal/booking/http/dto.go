package http

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/nekogravitycat/consult-booking-backend/internal/booking"
	"github.com/nekogravitycat/consult-booking-backend/internal/pkg/apperror"
)

var (
	ErrInvalidPhone = apperror.New(http.StatusBadRequest, "invalid phone number")

	phonePattern = regexp.MustCompile(`^[+]?[0-9]{10,15}$`)
)

// CreateBookingBody is the public intake form payload.
type CreateBookingBody struct {
	FullName      string `json:"full_name" binding:"required,max=100"`
	Email         string `json:"email" binding:"required,email,max=255"`
	Phone         string `json:"phone" binding:"required"`
	BusinessName  string `json:"business_name" binding:"max=200"`
	City          string `json:"city" binding:"max=100"`
	ServiceType   string `json:"service_type" binding:"required,max=100"`
	MonthlyBudget string `json:"monthly_budget" binding:"max=50"`
	Message       string `json:"message" binding:"max=2000"`
}

// Validate checks what binding tags cannot express.
func (r *CreateBookingBody) Validate() error {
	if !phonePattern.MatchString(strings.TrimSpace(r.Phone)) {
		return ErrInvalidPhone
	}
	return nil
}

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
	Status   string `form:"status"`
}

// Validate normalizes the status filter.
func (r *ListBookingsRequest) Validate() (booking.Status, error) {
	if r.Status == "" {
		return "", nil
	}
	return booking.ParseStatus(r.Status)
}

// UpdateStatusBody is the payload for PATCH /bookings/:id/status.
// A missing notes field keeps the stored notes; an empty string clears them.
type UpdateStatusBody struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes" binding:"omitempty,max=2000"`
}

type BookingResponse struct {
	ID            string     `json:"id"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	BusinessName  string     `json:"business_name"`
	City          string     `json:"city"`
	ServiceType   string     `json:"service_type"`
	MonthlyBudget string     `json:"monthly_budget"`
	Message       string     `json:"message"`
	Status        string     `json:"status"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	Notes         string     `json:"notes"`
	AssignedTo    string     `json:"assigned_to"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		FullName:      b.FullName,
		Email:         b.Email,
		Phone:         b.Phone,
		BusinessName:  b.BusinessName,
		City:          b.City,
		ServiceType:   b.ServiceType,
		MonthlyBudget: b.MonthlyBudget,
		Message:       b.Message,
		Status:        string(b.Status),
		ScheduledDate: b.ScheduledDate,
		Notes:         b.Notes,
		AssignedTo:    b.AssignedTo,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

type StatsResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	Today    int            `json:"today"`
}

func NewStatsResponse(s *booking.Stats) StatsResponse {
	byStatus := make(map[string]int, len(s.ByStatus))
	for st, n := range s.ByStatus {
		byStatus[string(st)] = n
	}
	return StatsResponse{Total: s.Total, ByStatus: byStatus, Today: s.Today}
}

type ServiceTypeCountResponse struct {
	ServiceType string `json:"service_type"`
	Count       int    `json:"count"`
}
