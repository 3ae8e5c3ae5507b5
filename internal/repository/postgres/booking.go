package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"medride/internal/domain"
	"medride/internal/repository"
)

const bookingColumns = `id, user_id, driver_id, status, payment_status, scheduled_start, scheduled_end,
	total_hours, total_price, slip_url, note, cancel_reason, created_at, updated_at`

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var driverID sql.NullInt64
	var scheduledEnd sql.NullTime
	var slipURL, note, cancelReason sql.NullString

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&driverID,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.ScheduledStart,
		&scheduledEnd,
		&booking.TotalHours,
		&booking.TotalPrice,
		&slipURL,
		&note,
		&cancelReason,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		id := driverID.Int64
		booking.DriverID = &id
	}
	if scheduledEnd.Valid {
		end := scheduledEnd.Time
		booking.ScheduledEnd = &end
	}
	booking.SlipURL = slipURL.String
	booking.Note = note.String
	booking.CancelReason = cancelReason.String

	return &booking, nil
}

func (r *BookingRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.Booking, error) {
	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (r *BookingRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (user_id, driver_id, status, payment_status, scheduled_start, scheduled_end, total_hours, total_price, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id
	`

	var driverID sql.NullInt64
	if booking.HasDriver() {
		driverID = sql.NullInt64{Int64: *booking.DriverID, Valid: true}
	}

	var scheduledEnd sql.NullTime
	if booking.ScheduledEnd != nil {
		scheduledEnd = sql.NullTime{Time: *booking.ScheduledEnd, Valid: true}
	}

	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}
	booking.UpdatedAt = booking.CreatedAt

	return r.q.QueryRowContext(ctx, query,
		booking.UserID,
		driverID,
		booking.Status,
		booking.PaymentStatus,
		booking.ScheduledStart,
		scheduledEnd,
		booking.TotalHours,
		booking.TotalPrice,
		nullString(booking.Note),
		booking.CreatedAt,
	).Scan(&booking.ID)
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.queryOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

// GetForUpdate retrieves a booking and locks its row.
func (r *BookingRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.queryOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

// List retrieves bookings matching the filter.
func (r *BookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]*domain.Booking, error) {
	var where []string
	var args []any

	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.DriverID > 0 {
		args = append(args, filter.DriverID)
		where = append(where, fmt.Sprintf("driver_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, pq.Array(statusStrings(filter.Statuses)))
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	return r.queryMany(ctx, query, args...)
}

// ListPool retrieves unassigned pending bookings that can still be accepted.
func (r *BookingRepository) ListPool(ctx context.Context, notBefore time.Time) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND driver_id IS NULL AND scheduled_start >= $2
		ORDER BY scheduled_start ASC
	`
	return r.queryMany(ctx, query, domain.StatusPending, notBefore)
}

// CountActiveByDriver counts the bookings occupying the driver.
func (r *BookingRepository) CountActiveByDriver(ctx context.Context, driverID int64) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE driver_id = $1 AND status = ANY($2)`

	var count int
	err := r.q.QueryRowContext(ctx, query, driverID, pq.Array(statusStrings(domain.ActiveStatuses()))).Scan(&count)
	return count, err
}

// GetActiveByDriver returns the booking occupying the driver.
func (r *BookingRepository) GetActiveByDriver(ctx context.Context, driverID int64) (*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE driver_id = $1 AND status = ANY($2)
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return r.queryOne(ctx, query, driverID, pq.Array(statusStrings(domain.ActiveStatuses())))
}

// AssignDriver binds a driver to an unassigned pending booking.
func (r *BookingRepository) AssignDriver(ctx context.Context, id, driverID int64) error {
	query := `
		UPDATE bookings
		SET driver_id = $1, status = $2, updated_at = now()
		WHERE id = $3 AND status = $4 AND driver_id IS NULL
	`

	result, err := r.q.ExecContext(ctx, query, driverID, domain.StatusAccepted, id, domain.StatusPending)
	if err != nil {
		return err
	}
	return checkAffected(result, repository.ErrStaleState)
}

// ReleaseDriver clears the driver and puts the booking back in the pool.
func (r *BookingRepository) ReleaseDriver(ctx context.Context, id, driverID int64, from domain.BookingStatus) error {
	query := `
		UPDATE bookings
		SET driver_id = NULL, status = $1, updated_at = now()
		WHERE id = $2 AND status = $3 AND driver_id = $4
	`

	result, err := r.q.ExecContext(ctx, query, domain.StatusPending, id, from, driverID)
	if err != nil {
		return err
	}
	return checkAffected(result, repository.ErrStaleState)
}

// UpdateStatus moves a booking from one status to another.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) error {
	query := `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	return checkAffected(result, repository.ErrStaleState)
}

// Cancel moves a booking to cancelled.
func (r *BookingRepository) Cancel(ctx context.Context, id int64, from domain.BookingStatus, reason string) error {
	query := `
		UPDATE bookings
		SET status = $1, cancel_reason = $2, updated_at = now()
		WHERE id = $3 AND status = $4
	`

	result, err := r.q.ExecContext(ctx, query, domain.StatusCancelled, nullString(reason), id, from)
	if err != nil {
		return err
	}
	return checkAffected(result, repository.ErrStaleState)
}

// UpdatePayment changes status and payment state together.
func (r *BookingRepository) UpdatePayment(ctx context.Context, id int64, change repository.PaymentChange) error {
	query := `
		UPDATE bookings
		SET status = $1, payment_status = $2, slip_url = COALESCE($3, slip_url), updated_at = now()
		WHERE id = $4 AND status = $5 AND payment_status = ANY($6)
	`

	from := make([]string, 0, len(change.FromPayment))
	for _, p := range change.FromPayment {
		from = append(from, string(p))
	}

	result, err := r.q.ExecContext(ctx, query,
		change.ToStatus,
		change.ToPayment,
		nullString(change.SlipURL),
		id,
		change.FromStatus,
		pq.Array(from),
	)
	if err != nil {
		return err
	}
	return checkAffected(result, repository.ErrStaleState)
}

// Delete removes a booking row. Dependent rows must be removed first.
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result, repository.ErrNotFound)
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
