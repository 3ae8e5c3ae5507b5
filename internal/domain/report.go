package domain

import "time"

// Report is an issue raised by a user or driver against a booking.
type Report struct {
	ID           int64
	BookingID    int64
	ReporterID   int64
	ReporterType Role
	Title        string
	Detail       string
	Reply        string
	IsReplied    bool
	RepliedBy    *int64
	RepliedAt    *time.Time
	CreatedAt    time.Time
}
