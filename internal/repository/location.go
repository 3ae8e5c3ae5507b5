package repository

import (
	"context"

	"medride/internal/domain"
)

// LocationRepository stores the pickup and hospital addresses of bookings.
type LocationRepository interface {
	Create(ctx context.Context, location *domain.Location) error
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Location, error)
	DeleteByBookingID(ctx context.Context, bookingID int64) error
}
