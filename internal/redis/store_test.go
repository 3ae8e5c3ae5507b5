package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medride/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// ──────────────────────────────────────────────
// LockStore
// ──────────────────────────────────────────────

func TestLockStore_AcquireIsExclusive(t *testing.T) {
	mr, client := newTestClient(t)
	locks := NewLockStore(client)
	ctx := context.Background()

	token, err := locks.AcquireBookingLock(ctx, 12, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, mr.Exists("lock:booking:12"))

	second, err := locks.AcquireBookingLock(ctx, 12, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, second, "lock is held")

	other, err := locks.AcquireBookingLock(ctx, 13, time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, other, "locks are per booking")
}

func TestLockStore_ReleaseComparesToken(t *testing.T) {
	mr, client := newTestClient(t)
	locks := NewLockStore(client)
	ctx := context.Background()

	token, err := locks.AcquireBookingLock(ctx, 12, time.Minute)
	require.NoError(t, err)

	err = locks.ReleaseBookingLock(ctx, 12, "someone-else")
	assert.ErrorIs(t, err, ErrLockLost)
	assert.True(t, mr.Exists("lock:booking:12"), "a foreign token must not delete the lock")

	require.NoError(t, locks.ReleaseBookingLock(ctx, 12, token))
	assert.False(t, mr.Exists("lock:booking:12"))

	again, err := locks.AcquireBookingLock(ctx, 12, time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, again)
}

func TestLockStore_ExpiredLockIsLost(t *testing.T) {
	mr, client := newTestClient(t)
	locks := NewLockStore(client)
	ctx := context.Background()

	token, err := locks.AcquireBookingLock(ctx, 12, 5*time.Second)
	require.NoError(t, err)

	mr.FastForward(6 * time.Second)

	// Someone else takes the expired lock; the old holder must not free it.
	next, err := locks.AcquireBookingLock(ctx, 12, 5*time.Second)
	require.NoError(t, err)
	require.NotEmpty(t, next)

	assert.ErrorIs(t, locks.ReleaseBookingLock(ctx, 12, token), ErrLockLost)
	assert.True(t, mr.Exists("lock:booking:12"))
}

// ──────────────────────────────────────────────
// LocationStore
// ──────────────────────────────────────────────

const (
	hospitalLat, hospitalLng = 13.7563, 100.5018
	nearbyLat, nearbyLng     = 13.7650, 100.5380
	farLat, farLng           = 18.7883, 98.9853
)

func TestLocationStore_NearestFirst(t *testing.T) {
	_, client := newTestClient(t)
	store := NewLocationStore(client)
	ctx := context.Background()

	require.NoError(t, store.UpdateLocation(ctx, 2, nearbyLat, nearbyLng))
	require.NoError(t, store.UpdateLocation(ctx, 1, hospitalLat, hospitalLng))
	require.NoError(t, store.UpdateLocation(ctx, 3, farLat, farLng))

	got, err := store.FindNearbyDrivers(ctx, hospitalLat, hospitalLng, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].DriverID)
	assert.Equal(t, int64(2), got[1].DriverID)
	assert.Less(t, got[0].DistKm, got[1].DistKm)
	assert.Greater(t, got[1].DistKm, 1.0)
}

func TestLocationStore_SkipsStalePositions(t *testing.T) {
	_, client := newTestClient(t)
	store := NewLocationStore(client)
	ctx := context.Background()

	clock := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.UpdateLocation(ctx, 1, hospitalLat, hospitalLng))
	clock = clock.Add(LocationFreshness + time.Minute)
	require.NoError(t, store.UpdateLocation(ctx, 2, nearbyLat, nearbyLng))

	got, err := store.FindNearbyDrivers(ctx, hospitalLat, hospitalLng, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].DriverID)

	// A fresh report brings the driver back.
	require.NoError(t, store.UpdateLocation(ctx, 1, hospitalLat, hospitalLng))
	got, err = store.FindNearbyDrivers(ctx, hospitalLat, hospitalLng, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLocationStore_GetAndRemove(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewLocationStore(client)
	ctx := context.Background()

	require.NoError(t, store.UpdateLocation(ctx, 7, hospitalLat, hospitalLng))

	loc, err := store.GetLocation(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.InDelta(t, hospitalLat, loc.Lat, 0.001)
	assert.InDelta(t, hospitalLng, loc.Lng, 0.001)

	require.NoError(t, store.RemoveLocation(ctx, 7))

	loc, err = store.GetLocation(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, loc)

	assert.False(t, mr.Exists(driverSeenKey), "last-seen entry is removed with the position")

	got, err := store.FindNearbyDrivers(ctx, hospitalLat, hospitalLng, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// ──────────────────────────────────────────────
// CacheStore
// ──────────────────────────────────────────────

func TestCacheStore_BookingRoundTripAndInvalidate(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewCacheStore(client)
	ctx := context.Background()

	miss, err := cache.GetBooking(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, miss)

	driverID := int64(7)
	start := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	booking := &domain.Booking{
		ID:             5,
		UserID:         10,
		DriverID:       &driverID,
		Status:         domain.StatusGoingPickup,
		PaymentStatus:  domain.PaymentPending,
		ScheduledStart: start,
		TotalHours:     2,
		TotalPrice:     600,
	}
	require.NoError(t, cache.SetBooking(ctx, booking))
	assert.Equal(t, BookingCacheTTL, mr.TTL("cache:booking:5"))

	got, err := cache.GetBooking(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusGoingPickup, got.Status)
	assert.Equal(t, int64(7), got.AssignedDriver())
	assert.True(t, got.ScheduledStart.Equal(start))

	require.NoError(t, cache.InvalidateBooking(ctx, 5))
	got, err = cache.GetBooking(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheStore_PoolHitMissAndExpiry(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewCacheStore(client)
	ctx := context.Background()

	_, hit, err := cache.GetPool(ctx)
	require.NoError(t, err)
	assert.False(t, hit)

	// An empty pool is still a hit.
	require.NoError(t, cache.SetPool(ctx, nil))
	pool, hit, err := cache.GetPool(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Empty(t, pool)

	require.NoError(t, cache.SetPool(ctx, []*domain.Booking{
		{ID: 1, Status: domain.StatusPending},
		{ID: 2, Status: domain.StatusPending},
	}))
	pool, hit, err = cache.GetPool(ctx)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Len(t, pool, 2)

	require.NoError(t, cache.InvalidatePool(ctx))
	_, hit, err = cache.GetPool(ctx)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.SetPool(ctx, nil))
	mr.FastForward(PoolCacheTTL + time.Second)
	_, hit, err = cache.GetPool(ctx)
	require.NoError(t, err)
	assert.False(t, hit, "pool listing expires")
}

func TestCacheStore_CorruptEntryIsAnError(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewCacheStore(client)

	require.NoError(t, mr.Set("cache:booking:9", "{not json"))
	_, err := cache.GetBooking(context.Background(), 9)
	assert.Error(t, err)
}
