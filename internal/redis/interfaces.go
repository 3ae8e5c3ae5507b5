package redis

import (
	"context"
	"time"

	"medride/internal/domain"
)

// LocationStoreInterface defines the interface for driver location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, driverID int64, lat, lng float64) error
	GetLocation(ctx context.Context, driverID int64) (*DriverLocation, error)
	FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error)
	RemoveLocation(ctx context.Context, driverID int64) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireBookingLock(ctx context.Context, bookingID int64, ttl time.Duration) (string, error)
	ReleaseBookingLock(ctx context.Context, bookingID int64, token string) error
}

// CacheStoreInterface defines the interface for booking read caches.
type CacheStoreInterface interface {
	GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, error)
	SetBooking(ctx context.Context, booking *domain.Booking) error
	InvalidateBooking(ctx context.Context, bookingID int64) error
	GetPool(ctx context.Context) ([]*domain.Booking, bool, error)
	SetPool(ctx context.Context, bookings []*domain.Booking) error
	InvalidatePool(ctx context.Context) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ CacheStoreInterface    = (*CacheStore)(nil)
)
