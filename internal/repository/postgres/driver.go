package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"medride/internal/domain"
	"medride/internal/repository"
)

const driverColumns = `id, name, phone, line_user_id, license_plate, vehicle_model, status, verified, created_at`

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var driver domain.Driver
	var lineUserID, licensePlate, vehicleModel sql.NullString

	err := row.Scan(
		&driver.ID,
		&driver.Name,
		&driver.Phone,
		&lineUserID,
		&licensePlate,
		&vehicleModel,
		&driver.Status,
		&driver.Verified,
		&driver.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	driver.LineUserID = lineUserID.String
	driver.LicensePlate = licensePlate.String
	driver.VehicleModel = vehicleModel.String
	return &driver, nil
}

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (name, phone, line_user_id, license_plate, vehicle_model, status, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	if driver.Status == "" {
		driver.Status = domain.DriverStatusInactive
	}
	if driver.Verified == "" {
		driver.Verified = domain.VerificationPending
	}
	if driver.CreatedAt.IsZero() {
		driver.CreatedAt = time.Now()
	}

	return r.q.QueryRowContext(ctx, query,
		driver.Name,
		driver.Phone,
		nullString(driver.LineUserID),
		nullString(driver.LicensePlate),
		nullString(driver.VehicleModel),
		driver.Status,
		driver.Verified,
		driver.CreatedAt,
	).Scan(&driver.ID)
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id int64) (*domain.Driver, error) {
	return r.getOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id)
}

// GetForUpdate retrieves a driver and locks its row.
func (r *DriverRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Driver, error) {
	return r.getOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1 FOR UPDATE`, id)
}

func (r *DriverRepository) getOne(ctx context.Context, query string, id int64) (*domain.Driver, error) {
	driver, err := scanDriver(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return driver, nil
}

// GetAll retrieves all drivers.
func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

// UpdateStatus updates the availability of a driver.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id int64, status domain.DriverStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE drivers SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffected(result, repository.ErrNotFound)
}

// UpdateVerification updates the admin review state of a driver.
func (r *DriverRepository) UpdateVerification(ctx context.Context, id int64, verified domain.VerificationStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE drivers SET verified = $1 WHERE id = $2`, verified, id)
	if err != nil {
		return err
	}
	return checkAffected(result, repository.ErrNotFound)
}
