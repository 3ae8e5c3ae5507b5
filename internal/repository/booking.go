package repository

import (
	"context"
	"time"

	"medride/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking and sets its ID.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)

	// GetForUpdate retrieves a booking and holds its row lock until the
	// surrounding transaction ends. Only meaningful inside a transaction.
	GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error)

	// List retrieves bookings matching the filter, newest first.
	List(ctx context.Context, filter BookingFilter) ([]*domain.Booking, error)

	// ListPool retrieves pending bookings with no driver scheduled after notBefore.
	ListPool(ctx context.Context, notBefore time.Time) ([]*domain.Booking, error)

	// CountActiveByDriver counts the bookings occupying the driver.
	CountActiveByDriver(ctx context.Context, driverID int64) (int, error)

	// GetActiveByDriver returns the booking occupying the driver.
	// Returns ErrNotFound if the driver is idle.
	GetActiveByDriver(ctx context.Context, driverID int64) (*domain.Booking, error)

	// AssignDriver binds the driver and moves the booking to accepted.
	// Returns ErrStaleState unless the booking is still an unassigned pending job.
	AssignDriver(ctx context.Context, id, driverID int64) error

	// ReleaseDriver clears the driver and moves the booking back to pending.
	// Returns ErrStaleState unless the booking is still in status from with that driver.
	ReleaseDriver(ctx context.Context, id, driverID int64, from domain.BookingStatus) error

	// UpdateStatus moves the booking from one status to another.
	// Returns ErrStaleState if the persisted status is no longer from.
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) error

	// Cancel moves the booking to cancelled, recording the reason.
	Cancel(ctx context.Context, id int64, from domain.BookingStatus, reason string) error

	// UpdatePayment changes status and payment state together.
	UpdatePayment(ctx context.Context, id int64, change PaymentChange) error

	// Delete removes the booking row.
	Delete(ctx context.Context, id int64) error
}

// BookingFilter narrows a booking listing. Zero values match everything.
type BookingFilter struct {
	UserID   int64
	DriverID int64
	Statuses []domain.BookingStatus
	Limit    int
}

// PaymentChange describes a guarded status + payment state update.
type PaymentChange struct {
	FromStatus  domain.BookingStatus
	ToStatus    domain.BookingStatus
	FromPayment []domain.PaymentStatus
	ToPayment   domain.PaymentStatus
	SlipURL     string // empty keeps the current slip
}
