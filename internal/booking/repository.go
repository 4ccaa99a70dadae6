package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Repository is the booking store. It owns identity assignment; timestamps and
// status are written exactly as given.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, b *Booking) error

	Count(ctx context.Context) (int, error)
	// CountByStatus returns counts for statuses that have at least one booking.
	CountByStatus(ctx context.Context) (map[Status]int, error)
	// CountCreatedBetween counts bookings with from <= created_at < to.
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	// CountByServiceType groups bookings by service type, in no particular order.
	CountByServiceType(ctx context.Context) ([]ServiceTypeCount, error)
}

// normalizePage applies default and maximum page bounds to the filter.
func normalizePage(filter *Filter) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var bookingColumns = []string{
	"id", "full_name", "email", "phone",
	"COALESCE(business_name, '')", "COALESCE(city, '')", "service_type",
	"COALESCE(monthly_budget, '')", "COALESCE(message, '')", "status", "scheduled_date",
	"COALESCE(notes, '')", "COALESCE(assigned_to, '')", "created_at", "updated_at",
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	dest := []any{
		&b.ID, &b.FullName, &b.Email, &b.Phone,
		&b.BusinessName, &b.City, &b.ServiceType,
		&b.MonthlyBudget, &b.Message, &b.Status, &b.ScheduledDate,
		&b.Notes, &b.AssignedTo, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &b, nil
}

// mapPgError translates driver errors that carry domain meaning.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.InvalidTextRepresentation:
			// malformed uuid can never match a row
			return ErrNotFound
		case pgerrcode.CheckViolation:
			return ErrInvalidStatus
		}
	}
	return nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.booking_consultations").
		Columns(
			"full_name", "email", "phone", "business_name", "city", "service_type",
			"monthly_budget", "message", "status", "scheduled_date", "notes", "assigned_to",
			"created_at", "updated_at",
		).
		Values(
			b.FullName, b.Email, b.Phone, b.BusinessName, b.City, b.ServiceType,
			b.MonthlyBudget, b.Message, b.Status, b.ScheduledDate, b.Notes, b.AssignedTo,
			b.CreatedAt, b.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&b.ID); err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.booking_consultations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if mapped := mapPgError(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	normalizePage(&filter)

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(bookingColumns, "count(*) OVER() as total_count")...).
		From("public.booking_consultations")

	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}

	offset := (filter.Page - 1) * filter.PageSize
	query = query.OrderBy("created_at DESC", "id DESC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	// An out-of-range page returns no rows, so the window total is lost.
	if len(bookings) == 0 && filter.Page > 1 {
		total, err = r.countWhere(ctx, filter.Status)
		if err != nil {
			return nil, 0, err
		}
	}

	return bookings, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.booking_consultations").
		Set("status", b.Status).
		Set("notes", b.Notes).
		Set("scheduled_date", b.ScheduledDate).
		Set("assigned_to", b.AssignedTo).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Count(ctx context.Context) (int, error) {
	return r.countWhere(ctx, "")
}

func (r *pgxRepository) countWhere(ctx context.Context, status Status) (int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select("count(*)").From("public.booking_consultations")
	if status != "" {
		query = query.Where(squirrel.Eq{"status": status})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count bookings query failed: %w", err)
	}

	var n int
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bookings failed: %w", err)
	}
	return n, nil
}

func (r *pgxRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Select("status", "count(*)").
		From("public.booking_consultations").
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count by status query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("count by status failed: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var st Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan status count failed: %w", err)
		}
		counts[st] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts failed: %w", err)
	}
	return counts, nil
}

func (r *pgxRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Select("count(*)").
		From("public.booking_consultations").
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": to}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count created query failed: %w", err)
	}

	var n int
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count created bookings failed: %w", err)
	}
	return n, nil
}

func (r *pgxRepository) CountByServiceType(ctx context.Context) ([]ServiceTypeCount, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Select("service_type", "count(*)").
		From("public.booking_consultations").
		GroupBy("service_type").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count by service type query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("count by service type failed: %w", err)
	}
	defer rows.Close()

	var out []ServiceTypeCount
	for rows.Next() {
		var c ServiceTypeCount
		if err := rows.Scan(&c.ServiceType, &c.Count); err != nil {
			return nil, fmt.Errorf("scan service type count failed: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service type counts failed: %w", err)
	}
	return out, nil
}
