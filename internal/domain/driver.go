package domain

import "time"

// DriverStatus represents whether a driver is taking jobs.
type DriverStatus string

const (
	DriverStatusActive   DriverStatus = "active"
	DriverStatusInactive DriverStatus = "inactive"
	DriverStatusBanned   DriverStatus = "banned"
)

// IsValid reports whether s is a known driver status.
func (s DriverStatus) IsValid() bool {
	return s == DriverStatusActive || s == DriverStatusInactive || s == DriverStatusBanned
}

// VerificationStatus represents the admin review state of a driver.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending_approval"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// IsValid reports whether v is a known verification state.
func (v VerificationStatus) IsValid() bool {
	return v == VerificationPending || v == VerificationApproved || v == VerificationRejected
}

// Driver represents a driver in the system.
type Driver struct {
	ID           int64
	Name         string
	Phone        string
	LineUserID   string
	LicensePlate string
	VehicleModel string
	Status       DriverStatus
	Verified     VerificationStatus
	CreatedAt    time.Time
}

// CanTakeJobs reports whether the driver may be bound to a booking.
func (d *Driver) CanTakeJobs() bool {
	return d.Status == DriverStatusActive && d.Verified == VerificationApproved
}
