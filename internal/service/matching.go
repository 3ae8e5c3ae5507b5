package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"medride/internal/domain"
	"medride/internal/redis"
	"medride/internal/repository"
)

const (
	defaultSearchRadiusKm = 5.0
	maxSearchRadiusKm     = 50.0
)

// MatchingService suggests drivers an admin could assign to a booking.
type MatchingService struct {
	locationStore redis.LocationStoreInterface
	driverRepo    repository.DriverRepository
	bookingRepo   repository.BookingRepository
	locationRepo  repository.LocationRepository
	logger        *zap.Logger
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(
	locationStore redis.LocationStoreInterface,
	driverRepo repository.DriverRepository,
	bookingRepo repository.BookingRepository,
	locationRepo repository.LocationRepository,
	logger *zap.Logger,
) *MatchingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchingService{
		locationStore: locationStore,
		driverRepo:    driverRepo,
		bookingRepo:   bookingRepo,
		locationRepo:  locationRepo,
		logger:        logger,
	}
}

// NearbyRequest contains the parameters for a nearby driver search.
type NearbyRequest struct {
	BookingID int64
	Actor     domain.Actor
	RadiusKm  float64 // 0 uses the default
}

// Candidate is a driver who could take the booking right now.
type Candidate struct {
	Driver     *domain.Driver
	DistanceKm float64
}

// NearbyDrivers lists eligible idle drivers around the booking's pickup
// point, nearest first. The result is advisory; Assign re-checks everything.
func (s *MatchingService) NearbyDrivers(ctx context.Context, req NearbyRequest) ([]Candidate, error) {
	if !req.Actor.IsAdmin() {
		return nil, ErrForbiddenAction
	}
	if req.BookingID <= 0 {
		return nil, ErrInvalidBookingID
	}

	radiusKm := req.RadiusKm
	if radiusKm <= 0 {
		radiusKm = defaultSearchRadiusKm
	}
	if radiusKm > maxSearchRadiusKm {
		radiusKm = maxSearchRadiusKm
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsPoolJob() {
		return nil, ErrBookingAlreadyTaken
	}

	location, err := s.locationRepo.GetByBookingID(ctx, booking.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPickupCoordinates
		}
		return nil, err
	}
	if !location.HasPickupCoordinates() {
		return nil, ErrNoPickupCoordinates
	}

	nearby, err := s.locationStore.FindNearbyDrivers(ctx, location.PickupLat, location.PickupLng, radiusKm)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(nearby))
	for _, loc := range nearby {
		driver, err := s.driverRepo.GetByID(ctx, loc.DriverID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if !driver.CanTakeJobs() {
			continue
		}

		active, err := s.bookingRepo.CountActiveByDriver(ctx, driver.ID)
		if err != nil {
			return nil, err
		}
		if active > 0 {
			continue
		}

		candidates = append(candidates, Candidate{Driver: driver, DistanceKm: loc.DistKm})
	}

	s.logger.Debug("nearby drivers",
		zap.Int64("booking_id", booking.ID),
		zap.Float64("radius_km", radiusKm),
		zap.Int("found", len(nearby)),
		zap.Int("eligible", len(candidates)),
	)
	return candidates, nil
}
