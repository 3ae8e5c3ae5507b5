package repository

import (
	"context"

	"medride/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver and sets its ID.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id int64) (*domain.Driver, error)

	// GetForUpdate retrieves a driver and holds its row lock until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*domain.Driver, error)

	// GetAll retrieves all drivers.
	GetAll(ctx context.Context) ([]*domain.Driver, error)

	// UpdateStatus updates the availability of a driver.
	UpdateStatus(ctx context.Context, id int64, status domain.DriverStatus) error

	// UpdateVerification updates the admin review state of a driver.
	UpdateVerification(ctx context.Context, id int64, verified domain.VerificationStatus) error
}
