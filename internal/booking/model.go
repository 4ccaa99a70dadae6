package booking

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nekogravitycat/consult-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "booking not found")
	ErrInvalidStatus = apperror.New(http.StatusBadRequest, "invalid booking status")
	ErrMissingField  = apperror.New(http.StatusBadRequest, "missing required field")

	// ErrStore wraps failures of the underlying booking store.
	ErrStore = errors.New("booking store failure")
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusNoShow     Status = "NO_SHOW"
)

var statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}

// Statuses returns every lifecycle status in declaration order.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

// ParseStatus normalizes s and returns the matching status.
// Any status may follow any other; there are no transition guards.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) Valid() bool {
	for _, v := range statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Booking is a consultation request submitted through the agency site.
type Booking struct {
	ID            string
	FullName      string
	Email         string
	Phone         string
	BusinessName  string
	City          string
	ServiceType   string
	MonthlyBudget string // free-text bucket, e.g. "50k-1L"
	Message       string
	Status        Status
	ScheduledDate *time.Time
	Notes         string
	AssignedTo    string // staff identifier, not checked for existence
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Filter struct {
	Status   Status // empty means all
	Page     int
	PageSize int
}

// Stats is a point-in-time snapshot of booking counts.
type Stats struct {
	Total    int
	ByStatus map[Status]int
	Today    int
}

type ServiceTypeCount struct {
	ServiceType string
	Count       int
}
