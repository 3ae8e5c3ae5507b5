package domain

import "time"

// PaymentStatus tracks the slip verification state of a booking.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentWaitingVerify PaymentStatus = "waiting_verify"
	PaymentVerified      PaymentStatus = "verified"
	PaymentRejected      PaymentStatus = "rejected"
)

// IsValid reports whether p is a known payment status.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentWaitingVerify, PaymentVerified, PaymentRejected:
		return true
	}
	return false
}

// AcceptsSlip reports whether a new slip may be uploaded in this state.
func (p PaymentStatus) AcceptsSlip() bool {
	return p == PaymentPending || p == PaymentRejected
}

// Slip is an uploaded payment proof for a booking.
type Slip struct {
	BookingID   int64
	URL         string
	ContentType string
	Size        int64
	UploadedAt  time.Time
}
