package domain

import "time"

// Booking represents a single transport request from a patient.
type Booking struct {
	ID             int64
	UserID         int64
	DriverID       *int64 // nil until a driver is bound
	Status         BookingStatus
	PaymentStatus  PaymentStatus
	ScheduledStart time.Time
	ScheduledEnd   *time.Time
	TotalHours     float64
	TotalPrice     float64
	SlipURL        string
	Note           string
	CancelReason   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasDriver reports whether a driver is bound to the booking.
func (b *Booking) HasDriver() bool {
	return b.DriverID != nil && *b.DriverID > 0
}

// AssignedDriver returns the bound driver id, or 0.
func (b *Booking) AssignedDriver() int64 {
	if b.DriverID == nil {
		return 0
	}
	return *b.DriverID
}

// IsPoolJob reports whether the booking is waiting in the driver pool.
func (b *Booking) IsPoolJob() bool {
	return b.Status == StatusPending && !b.HasDriver()
}

// Location holds the pickup and hospital addresses of a booking.
type Location struct {
	BookingID       int64
	PickupAddress   string
	PickupLat       float64
	PickupLng       float64
	DropoffAddress  string
	DropoffLat      float64
	DropoffLng      float64
	DistanceMeters  int
	DurationSeconds int
}

// HasPickupCoordinates reports whether the pickup point was geocoded.
func (l *Location) HasPickupCoordinates() bool {
	return l.PickupLat != 0 || l.PickupLng != 0
}
