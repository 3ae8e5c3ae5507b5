package repository

import (
	"context"

	"medride/internal/domain"
)

// LogRepository is the append-only audit log. Rows are only removed
// together with their booking.
type LogRepository interface {
	// Append inserts a log row and sets its ID.
	Append(ctx context.Context, entry *domain.LogEntry) error

	// ListByBooking returns a booking's log rows in chronological order.
	ListByBooking(ctx context.Context, bookingID int64) ([]*domain.LogEntry, error)

	// DeleteByBooking removes every row of a deleted booking.
	DeleteByBooking(ctx context.Context, bookingID int64) error
}
