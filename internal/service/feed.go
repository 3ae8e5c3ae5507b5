package service

import (
	"context"

	"go.uber.org/zap"

	"medride/internal/domain"
	"medride/internal/redis"
)

// changeFeed runs the steps that follow a committed booking change:
// cache invalidation, then notification. Neither can fail the request.
type changeFeed struct {
	cache    redis.CacheStoreInterface
	notifier *NotificationService
	logger   *zap.Logger
}

func newChangeFeed(cache redis.CacheStoreInterface, notifier *NotificationService, logger *zap.Logger) changeFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return changeFeed{cache: cache, notifier: notifier, logger: logger}
}

func (f changeFeed) publish(ctx context.Context, bookingID int64, event Event) {
	f.invalidate(ctx, bookingID)
	f.notifier.Notify(ctx, event)
}

func (f changeFeed) invalidate(ctx context.Context, bookingID int64) {
	if f.cache == nil {
		return
	}
	if err := f.cache.InvalidateBooking(ctx, bookingID); err != nil {
		f.logger.Warn("invalidate booking cache", zap.Int64("booking_id", bookingID), zap.Error(err))
	}
	if err := f.cache.InvalidatePool(ctx); err != nil {
		f.logger.Warn("invalidate pool cache", zap.Error(err))
	}
}

// bookingEvent fills the routing fields of an event from a booking.
func bookingEvent(name EventName, b *domain.Booking) Event {
	return Event{
		Name:      name,
		BookingID: b.ID,
		DriverID:  b.AssignedDriver(),
		UserID:    b.UserID,
		Status:    b.Status,
	}
}
