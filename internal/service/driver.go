package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"medride/internal/domain"
	"medride/internal/redis"
	"medride/internal/repository"
)

// DriverService handles driver availability, review and positions.
type DriverService struct {
	uow           repository.UnitOfWork
	driverRepo    repository.DriverRepository
	bookingRepo   repository.BookingRepository
	locationStore redis.LocationStoreInterface
	notifier      *NotificationService
	logger        *zap.Logger
}

// NewDriverService creates a new DriverService. locationStore may be nil.
func NewDriverService(
	uow repository.UnitOfWork,
	driverRepo repository.DriverRepository,
	bookingRepo repository.BookingRepository,
	locationStore redis.LocationStoreInterface,
	notifier *NotificationService,
	logger *zap.Logger,
) *DriverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriverService{
		uow:           uow,
		driverRepo:    driverRepo,
		bookingRepo:   bookingRepo,
		locationStore: locationStore,
		notifier:      notifier,
		logger:        logger,
	}
}

// SetAvailability lets a driver go active or inactive. Banned drivers
// cannot change their own status.
func (s *DriverService) SetAvailability(ctx context.Context, actor domain.Actor, status domain.DriverStatus) (*domain.Driver, error) {
	if !actor.IsDriver() || actor.ID <= 0 {
		return nil, ErrForbiddenAction
	}
	if status != domain.DriverStatusActive && status != domain.DriverStatusInactive {
		return nil, ErrInvalidDriverState
	}

	var driver *domain.Driver
	err := s.uow.WithinTx(ctx, func(tx repository.Tx) error {
		d, err := tx.Drivers().GetForUpdate(ctx, actor.ID)
		if err != nil {
			return err
		}
		if d.Status == domain.DriverStatusBanned {
			return ErrDriverBanned
		}
		if d.Status != status {
			if err := tx.Drivers().UpdateStatus(ctx, d.ID, status); err != nil {
				return err
			}
		}
		d.Status = status
		driver = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterDriverChange(ctx, driver)
	return driver, nil
}

// AdminDriverUpdate contains the fields an admin may change. Nil fields
// are left unchanged.
type AdminDriverUpdate struct {
	DriverID int64
	Actor    domain.Actor
	Status   *domain.DriverStatus
	Verified *domain.VerificationStatus
}

// AdminUpdate changes the status or verification of a driver.
func (s *DriverService) AdminUpdate(ctx context.Context, req AdminDriverUpdate) (*domain.Driver, error) {
	if !req.Actor.IsAdmin() {
		return nil, ErrForbiddenAction
	}
	if req.DriverID <= 0 {
		return nil, ErrInvalidDriverID
	}
	if req.Status == nil && req.Verified == nil {
		return nil, ErrInvalidDriverState
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, ErrInvalidDriverState
	}
	if req.Verified != nil && !req.Verified.IsValid() {
		return nil, ErrInvalidDriverState
	}

	var driver *domain.Driver
	err := s.uow.WithinTx(ctx, func(tx repository.Tx) error {
		d, err := tx.Drivers().GetForUpdate(ctx, req.DriverID)
		if err != nil {
			return err
		}
		if req.Status != nil {
			if err := tx.Drivers().UpdateStatus(ctx, d.ID, *req.Status); err != nil {
				return err
			}
			d.Status = *req.Status
		}
		if req.Verified != nil {
			if err := tx.Drivers().UpdateVerification(ctx, d.ID, *req.Verified); err != nil {
				return err
			}
			d.Verified = *req.Verified
		}
		driver = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("driver updated by admin",
		zap.Int64("driver_id", driver.ID),
		zap.String("status", string(driver.Status)),
		zap.String("verified", string(driver.Verified)),
		zap.Stringer("actor", req.Actor),
	)
	s.afterDriverChange(ctx, driver)
	return driver, nil
}

// afterDriverChange drops drivers that can no longer take jobs from the
// geo index and notifies admins.
func (s *DriverService) afterDriverChange(ctx context.Context, driver *domain.Driver) {
	if !driver.CanTakeJobs() && s.locationStore != nil {
		if err := s.locationStore.RemoveLocation(ctx, driver.ID); err != nil {
			s.logger.Warn("remove driver location", zap.Int64("driver_id", driver.ID), zap.Error(err))
		}
	}
	s.notifier.Notify(ctx, Event{
		Name:     EventDriverUpdated,
		DriverID: driver.ID,
		Data: map[string]any{
			"status":   string(driver.Status),
			"verified": string(driver.Verified),
		},
	})
}

// UpdateLocationRequest contains the parameters for updating driver location.
type UpdateLocationRequest struct {
	Actor domain.Actor
	Lat   float64
	Lng   float64
}

// UpdateLocation stores the driver's position and forwards it to the
// user of the driver's active booking.
func (s *DriverService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	if !req.Actor.IsDriver() || req.Actor.ID <= 0 {
		return ErrForbiddenAction
	}
	if !isValidCoordinate(req.Lat, req.Lng) {
		return ErrInvalidLocation
	}
	if s.locationStore == nil {
		return errors.New("location store unavailable")
	}

	if err := s.locationStore.UpdateLocation(ctx, req.Actor.ID, req.Lat, req.Lng); err != nil {
		return err
	}

	active, err := s.bookingRepo.GetActiveByDriver(ctx, req.Actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Warn("lookup active booking", zap.Int64("driver_id", req.Actor.ID), zap.Error(err))
		return nil
	}

	s.notifier.Notify(ctx, Event{
		Name:      EventDriverLocation,
		BookingID: active.ID,
		DriverID:  req.Actor.ID,
		UserID:    active.UserID,
		Status:    active.Status,
		Data:      map[string]any{"lat": req.Lat, "lng": req.Lng},
	})
	return nil
}

// List returns every driver for the admin console.
func (s *DriverService) List(ctx context.Context, actor domain.Actor) ([]*domain.Driver, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbiddenAction
	}
	return s.driverRepo.GetAll(ctx)
}
