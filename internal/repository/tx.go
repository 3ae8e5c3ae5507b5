package repository

import "context"

// Tx exposes repositories bound to one database transaction.
type Tx interface {
	Bookings() BookingRepository
	Drivers() DriverRepository
	Locations() LocationRepository
	Logs() LogRepository
	Reports() ReportRepository
}

// UnitOfWork runs fn inside a transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
