package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"medride/internal/domain"
	"medride/internal/redis"
	"medride/internal/repository"
)

const (
	assignmentLockTTL  = 15 * time.Second
	assignmentLockWait = 2 * time.Second
	lockRetryInterval  = 50 * time.Millisecond
)

// AssignmentService binds drivers to pool jobs and releases them again.
type AssignmentService struct {
	uow      repository.UnitOfWork
	locks    redis.LockStoreInterface
	audit    *AuditWriter
	feed     changeFeed
	logger   *zap.Logger
	now      func() time.Time
	lockWait time.Duration
}

// NewAssignmentService creates a new AssignmentService. locks and cache may be nil.
func NewAssignmentService(
	uow repository.UnitOfWork,
	locks redis.LockStoreInterface,
	cache redis.CacheStoreInterface,
	audit *AuditWriter,
	notifier *NotificationService,
	logger *zap.Logger,
) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		uow:      uow,
		locks:    locks,
		audit:    audit,
		feed:     newChangeFeed(cache, notifier, logger),
		logger:   logger,
		now:      time.Now,
		lockWait: assignmentLockWait,
	}
}

// AssignRequest contains the parameters for an admin assignment.
type AssignRequest struct {
	BookingID int64
	DriverID  int64
	Actor     domain.Actor
}

// AcceptRequest contains the parameters for a driver taking a pool job.
type AcceptRequest struct {
	BookingID int64
	Actor     domain.Actor
}

// ReturnRequest contains the parameters for putting a job back in the pool.
type ReturnRequest struct {
	BookingID int64
	Actor     domain.Actor
	Reason    string
}

// Assign binds the given driver to a pending booking on behalf of an admin.
func (s *AssignmentService) Assign(ctx context.Context, req AssignRequest) (*domain.Booking, error) {
	if !req.Actor.IsAdmin() {
		return nil, ErrForbiddenAction
	}
	if req.BookingID <= 0 {
		return nil, ErrInvalidBookingID
	}
	if req.DriverID <= 0 {
		return nil, ErrInvalidDriverID
	}
	return s.bind(ctx, req.BookingID, req.DriverID, req.Actor)
}

// Accept binds the acting driver to a pending booking.
func (s *AssignmentService) Accept(ctx context.Context, req AcceptRequest) (*domain.Booking, error) {
	if !req.Actor.IsDriver() || req.Actor.ID <= 0 {
		return nil, ErrForbiddenAction
	}
	if req.BookingID <= 0 {
		return nil, ErrInvalidBookingID
	}
	return s.bind(ctx, req.BookingID, req.Actor.ID, req.Actor)
}

// bind is the assignment critical section. The booking row is locked
// before any precondition is read and stays locked until commit; the
// driver row is locked second so two bookings cannot claim one driver.
func (s *AssignmentService) bind(ctx context.Context, bookingID, driverID int64, actor domain.Actor) (*domain.Booking, error) {
	release, err := s.acquireLock(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer release()

	var booking *domain.Booking
	err = s.uow.WithinTx(ctx, func(tx repository.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status.IsTerminal() {
			return ErrTerminalState
		}
		if b.Status != domain.StatusPending || b.HasDriver() {
			return ErrBookingAlreadyTaken
		}
		if err := CheckTransition(transitionFor(b, domain.StatusAccepted, actor, s.now())); err != nil {
			return err
		}

		driver, err := tx.Drivers().GetForUpdate(ctx, driverID)
		if err != nil {
			return err
		}
		if err := checkDriverEligible(driver); err != nil {
			return err
		}

		active, err := tx.Bookings().CountActiveByDriver(ctx, driverID)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrDriverBusy
		}

		if err := tx.Bookings().AssignDriver(ctx, bookingID, driverID); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return ErrBookingAlreadyTaken
			}
			return err
		}

		action := domain.ActionAccept
		message := fmt.Sprintf("driver %d accepted the job", driverID)
		if actor.IsAdmin() {
			action = domain.ActionAssign
			message = fmt.Sprintf("admin %d assigned driver %d", actor.ID, driverID)
		}
		if err := s.audit.Record(ctx, tx.Logs(), AuditRecord{
			BookingID:   bookingID,
			Actor:       actor,
			EventType:   domain.EventTypeAssignment,
			EventAction: action,
			Message:     message,
		}); err != nil {
			return err
		}

		b.DriverID = &driverID
		b.Status = domain.StatusAccepted
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := bookingEvent(EventBookingAccepted, booking)
	event.ChatText = fmt.Sprintf("การจอง #%d: %s", booking.ID, booking.Status.ThaiLabel())
	event.ChatRecipients = []domain.Actor{domain.UserActor(booking.UserID)}
	if actor.IsAdmin() {
		event.Name = EventBookingAssigned
		event.ChatRecipients = append(event.ChatRecipients, domain.DriverActor(driverID))
	}
	s.feed.publish(ctx, booking.ID, event)

	s.logger.Info("booking assigned",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("driver_id", driverID),
		zap.Stringer("actor", actor),
	)
	return booking, nil
}

// ReturnToPool clears the driver of a job that has not reached pickup
// and puts it back in the pool as a fresh pending booking.
func (s *AssignmentService) ReturnToPool(ctx context.Context, req ReturnRequest) (*domain.Booking, error) {
	if req.BookingID <= 0 {
		return nil, ErrInvalidBookingID
	}

	var booking *domain.Booking
	var previousDriver int64
	err := s.uow.WithinTx(ctx, func(tx repository.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if err := CheckTransition(transitionFor(b, domain.StatusPending, req.Actor, s.now())); err != nil {
			return err
		}

		previousDriver = b.AssignedDriver()
		if err := tx.Bookings().ReleaseDriver(ctx, b.ID, previousDriver, b.Status); err != nil {
			return staleAsConflict(err)
		}

		message := fmt.Sprintf("driver %d released the job from %s", previousDriver, b.Status)
		if req.Reason != "" {
			message += ": " + req.Reason
		}
		if err := s.audit.Record(ctx, tx.Logs(), AuditRecord{
			BookingID:   b.ID,
			Actor:       req.Actor,
			EventType:   domain.EventTypeDriver,
			EventAction: domain.ActionReturnToPool,
			Message:     message,
		}); err != nil {
			return err
		}

		b.DriverID = nil
		b.Status = domain.StatusPending
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := bookingEvent(EventBookingReturned, booking)
	event.DriverID = previousDriver
	event.ChatText = fmt.Sprintf("การจอง #%d: กำลังหาคนขับใหม่", booking.ID)
	event.ChatRecipients = []domain.Actor{domain.UserActor(booking.UserID)}
	if req.Actor.IsAdmin() {
		event.ChatRecipients = append(event.ChatRecipients, domain.DriverActor(previousDriver))
	}
	s.feed.publish(ctx, booking.ID, event)

	return booking, nil
}

func (s *AssignmentService) acquireLock(ctx context.Context, bookingID int64) (func(), error) {
	noop := func() {}
	if s.locks == nil {
		return noop, nil
	}

	deadline := time.Now().Add(s.lockWait)
	for {
		token, err := s.locks.AcquireBookingLock(ctx, bookingID, assignmentLockTTL)
		if err != nil {
			// The row lock still serializes assignment.
			s.logger.Warn("booking lock unavailable", zap.Int64("booking_id", bookingID), zap.Error(err))
			return noop, nil
		}
		if token != "" {
			return func() {
				if err := s.locks.ReleaseBookingLock(context.WithoutCancel(ctx), bookingID, token); err != nil {
					s.logger.Warn("release booking lock", zap.Int64("booking_id", bookingID), zap.Error(err))
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrAssignmentInProgress
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

func checkDriverEligible(d *domain.Driver) error {
	switch d.Status {
	case domain.DriverStatusActive:
	case domain.DriverStatusBanned:
		return ErrDriverBanned
	default:
		return ErrDriverOffline
	}
	if d.Verified != domain.VerificationApproved {
		return ErrDriverUnverified
	}
	return nil
}

func staleAsConflict(err error) error {
	if errors.Is(err, repository.ErrStaleState) {
		return ErrStaleStatus
	}
	return err
}
