package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nekogravitycat/consult-booking-backend/internal/booking"
	"github.com/nekogravitycat/consult-booking-backend/internal/metrics"
)

// ErrDispatch wraps every delivery failure. It never leaves the dispatcher
// except through the synchronous Dispatch* methods.
var ErrDispatch = errors.New("notification dispatch failed")

const (
	KindConfirmation = "confirmation"
	KindAdminAlert   = "admin_alert"
)

// Config carries the sender identity and fixed addresses used in messages.
type Config struct {
	AppName string
	AdminTo string
	Support string
}

// Dispatcher sends the post-creation messages for a booking.
// Each message gets exactly one delivery attempt; failures are logged and dropped.
type Dispatcher struct {
	gateway Gateway
	cfg     Config
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(gateway Gateway, cfg Config, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
	}
}

// BookingCreated starts the client confirmation and the admin alert as two
// independent goroutines and returns without waiting for either.
func (d *Dispatcher) BookingCreated(ctx context.Context, b booking.Booking) {
	// The request that created the booking may finish before delivery does.
	ctx = context.WithoutCancel(ctx)

	d.spawn(ctx, KindConfirmation, b, d.DispatchConfirmation)
	d.spawn(ctx, KindAdminAlert, b, d.DispatchAdminAlert)
}

func (d *Dispatcher) spawn(ctx context.Context, kind string, b booking.Booking, fn func(context.Context, booking.Booking) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: panic: %v", ErrDispatch, r)
			}
			d.record(kind, b.ID, err)
		}()

		err = fn(ctx, b)
	}()
}

func (d *Dispatcher) record(kind, bookingID string, err error) {
	if err != nil {
		metrics.NotificationDispatch.WithLabelValues(kind, "failed").Inc()
		d.logger.Error("notification dispatch failed",
			zap.String("kind", kind),
			zap.String("booking_id", bookingID),
			zap.Error(err),
		)
		return
	}
	metrics.NotificationDispatch.WithLabelValues(kind, "sent").Inc()
	d.logger.Info("notification sent",
		zap.String("kind", kind),
		zap.String("booking_id", bookingID),
	)
}

// DispatchConfirmation renders and sends the client confirmation synchronously.
func (d *Dispatcher) DispatchConfirmation(ctx context.Context, b booking.Booking) error {
	subject, body, err := RenderConfirmation(d.cfg, b)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	if err := d.gateway.Send(ctx, b.Email, subject, body); err != nil {
		return fmt.Errorf("%w: send to %s: %w", ErrDispatch, b.Email, err)
	}
	return nil
}

// DispatchAdminAlert renders and sends the staff alert synchronously.
func (d *Dispatcher) DispatchAdminAlert(ctx context.Context, b booking.Booking) error {
	subject, body, err := RenderAdminAlert(d.cfg, b)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	if err := d.gateway.Send(ctx, d.cfg.AdminTo, subject, body); err != nil {
		return fmt.Errorf("%w: send to %s: %w", ErrDispatch, d.cfg.AdminTo, err)
	}
	return nil
}

// Wait blocks until every dispatch started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Shutdown waits for in-flight dispatches or gives up when ctx is done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
