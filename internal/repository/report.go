package repository

import (
	"context"
	"time"

	"medride/internal/domain"
)

// ReportRepository defines the persistence operations for reports.
type ReportRepository interface {
	// Create persists a new report and sets its ID.
	Create(ctx context.Context, report *domain.Report) error

	// GetByID retrieves a report by ID.
	GetByID(ctx context.Context, id int64) (*domain.Report, error)

	// List retrieves reports, newest first. With onlyOpen set, replied
	// reports are excluded.
	List(ctx context.Context, onlyOpen bool) ([]*domain.Report, error)

	// Reply stores the admin reply. Returns ErrStaleState if the report
	// was already replied to.
	Reply(ctx context.Context, id int64, reply string, adminID int64, at time.Time) error

	// DeleteByBooking removes every report of a deleted booking.
	DeleteByBooking(ctx context.Context, bookingID int64) error
}
