package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockLost is returned by ReleaseBookingLock when the lock expired or was
// taken over before the holder released it.
var ErrLockLost = errors.New("booking lock expired before release")

// compareAndDelete removes the key only while it still carries the caller's token.
var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore guards booking assignment with short-lived SETNX locks. The
// lock only narrows contention; the database row lock decides the winner.
type LockStore struct {
	client redis.Cmdable
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func bookingLockKey(bookingID int64) string {
	return "lock:booking:" + strconv.FormatInt(bookingID, 10)
}

// AcquireBookingLock tries once to take the assignment lock for a booking.
// It returns the holder token, or "" while someone else holds it.
func (s *LockStore) AcquireBookingLock(ctx context.Context, bookingID int64, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, bookingLockKey(bookingID), token, ttl).Result()
	switch {
	case err != nil:
		return "", err
	case !ok:
		return "", nil
	}
	return token, nil
}

// ReleaseBookingLock drops the lock if token still holds it.
func (s *LockStore) ReleaseBookingLock(ctx context.Context, bookingID int64, token string) error {
	deleted, err := compareAndDelete.Run(ctx, s.client, []string{bookingLockKey(bookingID)}, token).Int()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrLockLost
	}
	return nil
}
