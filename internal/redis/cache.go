package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"medride/internal/domain"
)

// CacheStore handles booking read caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	BookingCacheTTL = 10 * time.Second
	PoolCacheTTL    = 10 * time.Second // drivers poll the pool
)

const (
	bookingCachePrefix = "cache:booking:"
	poolCacheKey       = "cache:pool"
)

// CachedBooking is the JSON form of a booking kept in Redis.
type CachedBooking struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	DriverID       *int64     `json:"driver_id,omitempty"`
	Status         string     `json:"status"`
	PaymentStatus  string     `json:"payment_status"`
	ScheduledStart time.Time  `json:"scheduled_start"`
	ScheduledEnd   *time.Time `json:"scheduled_end,omitempty"`
	TotalHours     float64    `json:"total_hours"`
	TotalPrice     float64    `json:"total_price"`
	SlipURL        string     `json:"slip_url,omitempty"`
	Note           string     `json:"note,omitempty"`
	CancelReason   string     `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToCachedBooking converts a domain booking for caching.
func ToCachedBooking(b *domain.Booking) *CachedBooking {
	return &CachedBooking{
		ID:             b.ID,
		UserID:         b.UserID,
		DriverID:       b.DriverID,
		Status:         string(b.Status),
		PaymentStatus:  string(b.PaymentStatus),
		ScheduledStart: b.ScheduledStart,
		ScheduledEnd:   b.ScheduledEnd,
		TotalHours:     b.TotalHours,
		TotalPrice:     b.TotalPrice,
		SlipURL:        b.SlipURL,
		Note:           b.Note,
		CancelReason:   b.CancelReason,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

// ToDomain converts a cached booking back.
func (c *CachedBooking) ToDomain() *domain.Booking {
	return &domain.Booking{
		ID:             c.ID,
		UserID:         c.UserID,
		DriverID:       c.DriverID,
		Status:         domain.BookingStatus(c.Status),
		PaymentStatus:  domain.PaymentStatus(c.PaymentStatus),
		ScheduledStart: c.ScheduledStart,
		ScheduledEnd:   c.ScheduledEnd,
		TotalHours:     c.TotalHours,
		TotalPrice:     c.TotalPrice,
		SlipURL:        c.SlipURL,
		Note:           c.Note,
		CancelReason:   c.CancelReason,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// GetBooking retrieves a booking from cache. A miss returns nil, nil.
func (s *CacheStore) GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	var cached CachedBooking
	hit, err := s.getJSON(ctx, fmt.Sprintf("%s%d", bookingCachePrefix, bookingID), &cached)
	if err != nil || !hit {
		return nil, err
	}
	return cached.ToDomain(), nil
}

// SetBooking stores a booking in cache.
func (s *CacheStore) SetBooking(ctx context.Context, booking *domain.Booking) error {
	return s.setJSON(ctx, fmt.Sprintf("%s%d", bookingCachePrefix, booking.ID), ToCachedBooking(booking), BookingCacheTTL)
}

// InvalidateBooking removes a booking from cache.
func (s *CacheStore) InvalidateBooking(ctx context.Context, bookingID int64) error {
	return s.client.Del(ctx, fmt.Sprintf("%s%d", bookingCachePrefix, bookingID)).Err()
}

// GetPool retrieves the cached pool listing. A miss returns nil, false, nil.
func (s *CacheStore) GetPool(ctx context.Context) ([]*domain.Booking, bool, error) {
	var cached []*CachedBooking
	hit, err := s.getJSON(ctx, poolCacheKey, &cached)
	if err != nil || !hit {
		return nil, false, err
	}

	bookings := make([]*domain.Booking, 0, len(cached))
	for _, c := range cached {
		bookings = append(bookings, c.ToDomain())
	}
	return bookings, true, nil
}

// SetPool stores the pool listing.
func (s *CacheStore) SetPool(ctx context.Context, bookings []*domain.Booking) error {
	cached := make([]*CachedBooking, 0, len(bookings))
	for _, b := range bookings {
		cached = append(cached, ToCachedBooking(b))
	}
	return s.setJSON(ctx, poolCacheKey, cached, PoolCacheTTL)
}

// InvalidatePool drops the pool listing so the next poll hits the database.
func (s *CacheStore) InvalidatePool(ctx context.Context) error {
	return s.client.Del(ctx, poolCacheKey).Err()
}

func (s *CacheStore) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheStore) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}
