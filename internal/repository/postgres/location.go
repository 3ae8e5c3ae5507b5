package postgres

import (
	"context"
	"database/sql"
	"errors"

	"medride/internal/domain"
	"medride/internal/repository"
)

// LocationRepository is a PostgreSQL implementation of repository.LocationRepository.
type LocationRepository struct {
	q Querier
}

// NewLocationRepository creates a new PostgreSQL location repository.
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{q: db}
}

// NewLocationRepositoryWithTx creates a location repository using a transaction.
func NewLocationRepositoryWithTx(tx *sql.Tx) *LocationRepository {
	return &LocationRepository{q: tx}
}

// Create stores the addresses of a booking.
func (r *LocationRepository) Create(ctx context.Context, loc *domain.Location) error {
	query := `
		INSERT INTO locations (booking_id, pickup_address, pickup_lat, pickup_lng, dropoff_address, dropoff_lat, dropoff_lng, distance_meters, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.q.ExecContext(ctx, query,
		loc.BookingID,
		loc.PickupAddress,
		loc.PickupLat,
		loc.PickupLng,
		loc.DropoffAddress,
		loc.DropoffLat,
		loc.DropoffLng,
		loc.DistanceMeters,
		loc.DurationSeconds,
	)
	return err
}

// GetByBookingID retrieves the addresses of a booking.
func (r *LocationRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Location, error) {
	query := `
		SELECT booking_id, pickup_address, pickup_lat, pickup_lng, dropoff_address, dropoff_lat, dropoff_lng, distance_meters, duration_seconds
		FROM locations WHERE booking_id = $1
	`

	var loc domain.Location
	err := r.q.QueryRowContext(ctx, query, bookingID).Scan(
		&loc.BookingID,
		&loc.PickupAddress,
		&loc.PickupLat,
		&loc.PickupLng,
		&loc.DropoffAddress,
		&loc.DropoffLat,
		&loc.DropoffLng,
		&loc.DistanceMeters,
		&loc.DurationSeconds,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &loc, nil
}

// DeleteByBookingID removes the addresses of a deleted booking.
func (r *LocationRepository) DeleteByBookingID(ctx context.Context, bookingID int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM locations WHERE booking_id = $1`, bookingID)
	return err
}
