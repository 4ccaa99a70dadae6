package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nekogravitycat/consult-booking-backend/internal/metrics"
	"github.com/nekogravitycat/consult-booking-backend/internal/pkg/apperror"
)

type CreateRequest struct {
	FullName      string
	Email         string
	Phone         string
	BusinessName  string
	City          string
	ServiceType   string
	MonthlyBudget string
	Message       string
}

type UpdateStatusRequest struct {
	Status string
	Notes  *string // nil keeps the current notes
}

// Notifier is told about every newly persisted booking.
// Implementations must return immediately and must not report delivery failures.
type Notifier interface {
	BookingCreated(ctx context.Context, b Booking)
}

type Config struct {
	DefaultCity string
	// Location defines the day boundary for the "today" count. Defaults to time.Local.
	Location *time.Location
	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Booking, error)

	Stats(ctx context.Context) (*Stats, error)
	ServiceTypeBreakdown(ctx context.Context) ([]ServiceTypeCount, error)
}

type service struct {
	repo     Repository
	notifier Notifier
	cfg      Config
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewService(repo Repository, notifier Notifier, cfg Config, logger *zap.Logger) Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &service{
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		tracer:   otel.Tracer("booking"),
	}
}

// now returns the current UTC time at the precision the store keeps.
func (s *service) now() time.Time {
	return s.cfg.Now().UTC().Truncate(time.Microsecond)
}

// storeErr keeps domain errors as they are and tags everything else as a store failure.
func storeErr(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Create")
	defer span.End()

	b := &Booking{
		FullName:      strings.TrimSpace(req.FullName),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		BusinessName:  strings.TrimSpace(req.BusinessName),
		City:          strings.TrimSpace(req.City),
		ServiceType:   strings.TrimSpace(req.ServiceType),
		MonthlyBudget: strings.TrimSpace(req.MonthlyBudget),
		Message:       strings.TrimSpace(req.Message),
		Status:        StatusPending,
	}

	required := []struct{ name, value string }{
		{"full_name", b.FullName},
		{"email", b.Email},
		{"phone", b.Phone},
		{"service_type", b.ServiceType},
	}
	for _, f := range required {
		if f.value == "" {
			err := fmt.Errorf("%w: %s", ErrMissingField, f.name)
			failSpan(span, err)
			return nil, err
		}
	}

	if b.City == "" {
		b.City = s.cfg.DefaultCity
	}

	now := s.now()
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := s.repo.Create(ctx, b); err != nil {
		err = storeErr(err)
		failSpan(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("booking.id", b.ID),
		attribute.String("booking.service_type", b.ServiceType),
	)
	metrics.BookingsCreated.Inc()
	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("email", b.Email),
		zap.String("service_type", b.ServiceType),
	)

	s.notifier.BookingCreated(ctx, *clone(b))

	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.GetByID", trace.WithAttributes(attribute.String("booking.id", id)))
	defer span.End()

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		err = storeErr(err)
		failSpan(span, err)
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	ctx, span := s.tracer.Start(ctx, "booking.List")
	defer span.End()

	if filter.Status != "" && !filter.Status.Valid() {
		failSpan(span, ErrInvalidStatus)
		return nil, 0, ErrInvalidStatus
	}

	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		err = storeErr(err)
		failSpan(span, err)
		return nil, 0, err
	}
	return list, total, nil
}

// UpdateStatus moves a booking to any lifecycle status. Notes replace the stored
// notes verbatim when given.
func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.UpdateStatus", trace.WithAttributes(attribute.String("booking.id", id)))
	defer span.End()

	st, err := ParseStatus(req.Status)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		err = storeErr(err)
		failSpan(span, err)
		return nil, err
	}

	from := b.Status
	b.Status = st
	if req.Notes != nil {
		b.Notes = *req.Notes
	}

	// UpdatedAt must move forward even when the clock does not.
	now := s.now()
	if !now.After(b.UpdatedAt) {
		now = b.UpdatedAt.Add(time.Microsecond)
	}
	b.UpdatedAt = now

	if err := s.repo.Update(ctx, b); err != nil {
		err = storeErr(err)
		failSpan(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("booking.status.from", string(from)),
		attribute.String("booking.status.to", string(st)),
	)
	metrics.StatusTransitions.WithLabelValues(string(from), string(st)).Inc()
	s.logger.Info("booking status updated",
		zap.String("booking_id", b.ID),
		zap.String("from", string(from)),
		zap.String("to", string(st)),
	)

	return b, nil
}

// Stats recomputes the counts from the store on every call.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Stats")
	defer span.End()

	total, err := s.repo.Count(ctx)
	if err != nil {
		err = storeErr(err)
		failSpan(span, err)
		return nil, err
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		err = storeErr(err)
		failSpan(span, err)
		return nil, err
	}

	byStatus := make(map[Status]int, len(statuses))
	for _, st := range statuses {
		byStatus[st] = counts[st]
	}

	start, end := s.today()
	today, err := s.repo.CountCreatedBetween(ctx, start, end)
	if err != nil {
		err = storeErr(err)
		failSpan(span, err)
		return nil, err
	}

	return &Stats{Total: total, ByStatus: byStatus, Today: today}, nil
}

// today returns the bounds of the current calendar day in the configured location.
func (s *service) today() (time.Time, time.Time) {
	y, m, d := s.cfg.Now().In(s.cfg.Location).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.cfg.Location)
	return start, start.AddDate(0, 0, 1)
}

// ServiceTypeBreakdown orders service types by booking count, most requested first.
// Equal counts are ordered by service type name.
func (s *service) ServiceTypeBreakdown(ctx context.Context) ([]ServiceTypeCount, error) {
	ctx, span := s.tracer.Start(ctx, "booking.ServiceTypeBreakdown")
	defer span.End()

	out, err := s.repo.CountByServiceType(ctx)
	if err != nil {
		err = storeErr(err)
		failSpan(span, err)
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ServiceType < out[j].ServiceType
	})
	if out == nil {
		out = []ServiceTypeCount{}
	}
	return out, nil
}
