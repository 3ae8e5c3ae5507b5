package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"medride/internal/domain"
	"medride/internal/redis"
	"medride/internal/repository"
)

// RouteEstimator estimates the drive between two addresses.
type RouteEstimator interface {
	EstimateRoute(ctx context.Context, origin, destination string) (distanceMeters int, duration time.Duration, err error)
}

// Pricing holds the tariff applied when a booking is created.
type Pricing struct {
	HourlyRate   float64
	DefaultHours float64 // used when no end time is given
}

// BookingService handles the booking lifecycle outside of assignment.
type BookingService struct {
	uow       repository.UnitOfWork
	bookings  repository.BookingRepository
	locations repository.LocationRepository
	logs      repository.LogRepository
	cache     redis.CacheStoreInterface
	routes    RouteEstimator
	audit     *AuditWriter
	feed      changeFeed
	pricing   Pricing
	logger    *zap.Logger
	now       func() time.Time
}

// NewBookingService creates a new BookingService. cache and routes may be nil.
func NewBookingService(
	uow repository.UnitOfWork,
	bookings repository.BookingRepository,
	locations repository.LocationRepository,
	logs repository.LogRepository,
	cache redis.CacheStoreInterface,
	routes RouteEstimator,
	audit *AuditWriter,
	notifier *NotificationService,
	pricing Pricing,
	logger *zap.Logger,
) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		uow:       uow,
		bookings:  bookings,
		locations: locations,
		logs:      logs,
		cache:     cache,
		routes:    routes,
		audit:     audit,
		feed:      newChangeFeed(cache, notifier, logger),
		pricing:   pricing,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateBookingRequest contains the parameters for booking a ride.
type CreateBookingRequest struct {
	Actor          domain.Actor
	ScheduledStart time.Time
	ScheduledEnd   *time.Time
	PickupAddress  string
	PickupLat      float64
	PickupLng      float64
	DropoffAddress string
	DropoffLat     float64
	DropoffLng     float64
	Note           string
}

// BookingDetail is a booking together with its addresses.
type BookingDetail struct {
	Booking  *domain.Booking
	Location *domain.Location
}

// Create books a new ride and puts it in the driver pool.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*BookingDetail, error) {
	if !req.Actor.IsUser() || req.Actor.ID <= 0 {
		return nil, ErrForbiddenAction
	}
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	hours, price := s.charges(req.ScheduledStart, req.ScheduledEnd)
	booking := &domain.Booking{
		UserID:         req.Actor.ID,
		Status:         domain.StatusPending,
		PaymentStatus:  domain.PaymentPending,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		TotalHours:     hours,
		TotalPrice:     price,
		Note:           strings.TrimSpace(req.Note),
		CreatedAt:      s.now(),
	}
	location := &domain.Location{
		PickupAddress:  strings.TrimSpace(req.PickupAddress),
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		DropoffAddress: strings.TrimSpace(req.DropoffAddress),
		DropoffLat:     req.DropoffLat,
		DropoffLng:     req.DropoffLng,
	}
	s.estimateRoute(ctx, location)

	err := s.uow.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Bookings().Create(ctx, booking); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		location.BookingID = booking.ID
		if err := tx.Locations().Create(ctx, location); err != nil {
			return fmt.Errorf("create location: %w", err)
		}
		return s.audit.Record(ctx, tx.Logs(), AuditRecord{
			BookingID:   booking.ID,
			Actor:       req.Actor,
			EventType:   domain.EventTypeBooking,
			EventAction: domain.ActionCreate,
			Message:     fmt.Sprintf("booked for %s", booking.ScheduledStart.Format(time.RFC3339)),
		})
	})
	if err != nil {
		return nil, err
	}

	event := bookingEvent(EventBookingCreated, booking)
	event.Data = map[string]any{
		"scheduled_start": booking.ScheduledStart,
		"pickup_address":  location.PickupAddress,
		"dropoff_address": location.DropoffAddress,
	}
	s.feed.publish(ctx, booking.ID, event)

	return &BookingDetail{Booking: booking, Location: location}, nil
}

func (s *BookingService) validateCreateRequest(req CreateBookingRequest) error {
	if req.ScheduledStart.IsZero() || req.ScheduledStart.Before(s.now()) {
		return ErrInvalidSchedule
	}
	if req.ScheduledEnd != nil && !req.ScheduledEnd.After(req.ScheduledStart) {
		return ErrInvalidSchedule
	}
	if strings.TrimSpace(req.PickupAddress) == "" || strings.TrimSpace(req.DropoffAddress) == "" {
		return ErrInvalidAddress
	}
	if !isValidCoordinate(req.PickupLat, req.PickupLng) || !isValidCoordinate(req.DropoffLat, req.DropoffLng) {
		return ErrInvalidLocation
	}
	return nil
}

func (s *BookingService) charges(start time.Time, end *time.Time) (hours, price float64) {
	hours = s.pricing.DefaultHours
	if end != nil {
		hours = math.Ceil(end.Sub(start).Hours())
	}
	if hours < 1 {
		hours = 1
	}
	return hours, hours * s.pricing.HourlyRate
}

func (s *BookingService) estimateRoute(ctx context.Context, loc *domain.Location) {
	if s.routes == nil {
		return
	}
	meters, duration, err := s.routes.EstimateRoute(ctx, loc.PickupAddress, loc.DropoffAddress)
	if err != nil {
		s.logger.Warn("route estimate failed", zap.Error(err))
		return
	}
	loc.DistanceMeters = meters
	loc.DurationSeconds = int(duration.Seconds())
}

// Get returns a booking the actor is allowed to see.
func (s *BookingService) Get(ctx context.Context, id int64, actor domain.Actor) (*BookingDetail, error) {
	if id <= 0 {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.cachedBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeView(actor, booking); err != nil {
		return nil, err
	}

	location, err := s.locations.GetByBookingID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return &BookingDetail{Booking: booking, Location: location}, nil
}

func (s *BookingService) cachedBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	if s.cache != nil {
		cached, err := s.cache.GetBooking(ctx, id)
		if err != nil {
			s.logger.Warn("read booking cache", zap.Int64("booking_id", id), zap.Error(err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// A pool job read before an accept commits could land in the cache after
	// the post-commit invalidation and keep the job visible to every driver.
	if s.cache != nil && !booking.IsPoolJob() {
		if err := s.cache.SetBooking(ctx, booking); err != nil {
			s.logger.Warn("write booking cache", zap.Int64("booking_id", id), zap.Error(err))
		}
	}
	return booking, nil
}

// authorizeView allows the owner, the bound driver, any driver for a pool
// job, and admins.
func authorizeView(actor domain.Actor, b *domain.Booking) error {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleUser:
		if actor.Is(domain.RoleUser, b.UserID) {
			return nil
		}
		return ErrNotBookingOwner
	case domain.RoleDriver:
		if actor.Is(domain.RoleDriver, b.AssignedDriver()) || b.IsPoolJob() {
			return nil
		}
		return ErrNotAssignedDriver
	}
	return ErrForbiddenAction
}

// List returns the bookings visible to the actor.
func (s *BookingService) List(ctx context.Context, actor domain.Actor, statuses []domain.BookingStatus) ([]*domain.Booking, error) {
	for _, st := range statuses {
		if !st.IsValid() {
			return nil, ErrInvalidStatus
		}
	}

	filter := repository.BookingFilter{Statuses: statuses}
	switch actor.Role {
	case domain.RoleUser:
		filter.UserID = actor.ID
	case domain.RoleDriver:
		filter.DriverID = actor.ID
	case domain.RoleAdmin:
	default:
		return nil, ErrForbiddenAction
	}
	return s.bookings.List(ctx, filter)
}

// ListPool returns the pending jobs drivers can still accept. Admins see
// pending bookings through List instead.
func (s *BookingService) ListPool(ctx context.Context, actor domain.Actor) ([]*domain.Booking, error) {
	if !actor.IsDriver() {
		return nil, ErrForbiddenAction
	}

	cutoff := s.now().Add(-LateAcceptCutoff)
	if s.cache != nil {
		pool, hit, err := s.cache.GetPool(ctx)
		if err != nil {
			s.logger.Warn("read pool cache", zap.Error(err))
		}
		if hit {
			return filterAcceptable(pool, cutoff), nil
		}
	}

	pool, err := s.bookings.ListPool(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetPool(ctx, pool); err != nil {
			s.logger.Warn("write pool cache", zap.Error(err))
		}
	}
	return pool, nil
}

func filterAcceptable(pool []*domain.Booking, cutoff time.Time) []*domain.Booking {
	out := make([]*domain.Booking, 0, len(pool))
	for _, b := range pool {
		if b.IsPoolJob() && !b.ScheduledStart.Before(cutoff) {
			out = append(out, b)
		}
	}
	return out
}

// CancelRequest contains the parameters for cancelling a booking.
type CancelRequest struct {
	BookingID int64
	Actor     domain.Actor
	Reason    string
}

// Cancel moves a booking to cancelled. The bound driver is kept for history.
func (s *BookingService) Cancel(ctx context.Context, req CancelRequest) (*domain.Booking, error) {
	if req.BookingID <= 0 {
		return nil, ErrInvalidBookingID
	}
	if !req.Actor.IsUser() && !req.Actor.IsAdmin() {
		return nil, ErrForbiddenAction
	}
	reason := strings.TrimSpace(req.Reason)

	var booking *domain.Booking
	err := s.uow.WithinTx(ctx, func(tx repository.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if err := CheckTransition(transitionFor(b, domain.StatusCancelled, req.Actor, s.now())); err != nil {
			return err
		}
		if err := tx.Bookings().Cancel(ctx, b.ID, b.Status, reason); err != nil {
			return staleAsConflict(err)
		}

		eventType := domain.EventTypeUserCancel
		if req.Actor.IsAdmin() {
			eventType = domain.EventTypeAdminCancel
		}
		message := fmt.Sprintf("cancelled from %s", b.Status)
		if reason != "" {
			message += ": " + reason
		}
		if err := s.audit.Record(ctx, tx.Logs(), AuditRecord{
			BookingID:   b.ID,
			Actor:       req.Actor,
			EventType:   eventType,
			EventAction: domain.ActionCancel,
			Message:     message,
		}); err != nil {
			return err
		}

		b.Status = domain.StatusCancelled
		b.CancelReason = reason
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := bookingEvent(EventBookingCancelled, booking)
	event.Data = map[string]any{"reason": reason, "cancelled_by": string(req.Actor.Role)}
	event.ChatText = fmt.Sprintf("การจอง #%d: %s", booking.ID, booking.Status.ThaiLabel())
	if booking.HasDriver() {
		event.ChatRecipients = append(event.ChatRecipients, domain.DriverActor(booking.AssignedDriver()))
	}
	if req.Actor.IsAdmin() {
		event.ChatRecipients = append(event.ChatRecipients, domain.UserActor(booking.UserID))
	}
	s.feed.publish(ctx, booking.ID, event)

	return booking, nil
}

// StatusRequest contains the parameters for advancing a booking.
type StatusRequest struct {
	BookingID int64
	Requested domain.BookingStatus
	Actor     domain.Actor
}

// UpdateStatus advances a booking through the driver pipeline. Admins may
// use it to push a stuck booking one step forward.
func (s *BookingService) UpdateStatus(ctx context.Context, req StatusRequest) (*domain.Booking, error) {
	if req.BookingID <= 0 {
		return nil, ErrInvalidBookingID
	}
	if !req.Requested.IsValid() {
		return nil, ErrInvalidStatus
	}
	if !req.Requested.IsDriverPipeline() {
		return nil, ErrInvalidTransition
	}

	var booking *domain.Booking
	var from domain.BookingStatus
	err := s.uow.WithinTx(ctx, func(tx repository.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if err := CheckTransition(transitionFor(b, req.Requested, req.Actor, s.now())); err != nil {
			return err
		}
		if err := tx.Bookings().UpdateStatus(ctx, b.ID, b.Status, req.Requested); err != nil {
			return staleAsConflict(err)
		}
		if err := s.audit.Record(ctx, tx.Logs(), AuditRecord{
			BookingID:   b.ID,
			Actor:       req.Actor,
			EventType:   domain.EventTypeStatus,
			EventAction: domain.ActionUpdateStatus,
			Message:     statusMessage(b.Status, req.Requested),
		}); err != nil {
			return err
		}

		from = b.Status
		b.Status = req.Requested
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := bookingEvent(EventBookingStatusChanged, booking)
	event.Data = map[string]any{"from": string(from)}
	event.ChatText = fmt.Sprintf("การจอง #%d: %s", booking.ID, booking.Status.ThaiLabel())
	event.ChatRecipients = []domain.Actor{domain.UserActor(booking.UserID)}
	if req.Actor.IsAdmin() && booking.HasDriver() {
		event.ChatRecipients = append(event.ChatRecipients, domain.DriverActor(booking.AssignedDriver()))
	}
	s.feed.publish(ctx, booking.ID, event)

	return booking, nil
}

// Delete removes a booking together with its location, logs and reports.
func (s *BookingService) Delete(ctx context.Context, id int64, actor domain.Actor) error {
	if !actor.IsAdmin() {
		return ErrForbiddenAction
	}
	if id <= 0 {
		return ErrInvalidBookingID
	}

	var booking *domain.Booking
	err := s.uow.WithinTx(ctx, func(tx repository.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Reports().DeleteByBooking(ctx, id); err != nil {
			return fmt.Errorf("delete reports: %w", err)
		}
		if err := tx.Logs().DeleteByBooking(ctx, id); err != nil {
			return fmt.Errorf("delete logs: %w", err)
		}
		if err := tx.Locations().DeleteByBookingID(ctx, id); err != nil {
			return fmt.Errorf("delete location: %w", err)
		}
		if err := tx.Bookings().Delete(ctx, id); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("booking deleted", zap.Int64("booking_id", id), zap.Stringer("actor", actor))
	event := bookingEvent(EventBookingDeleted, booking)
	event.Data = map[string]any{"deleted_by": actor.ID}
	s.feed.publish(ctx, id, event)
	return nil
}

// Timeline returns the audit history of a booking in display form.
func (s *BookingService) Timeline(ctx context.Context, id int64, actor domain.Actor) ([]TimelineEntry, error) {
	if id <= 0 {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeView(actor, booking); err != nil {
		return nil, err
	}

	entries, err := s.logs.ListByBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildTimeline(entries), nil
}

func isValidCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
