package handler

import (
	"time"

	"medride/internal/domain"
	"medride/internal/service"
)

// BookingResponse is the HTTP response for booking data.
type BookingResponse struct {
	ID             int64             `json:"id"`
	UserID         int64             `json:"user_id"`
	DriverID       *int64            `json:"driver_id"`
	Status         string            `json:"status"`
	StatusLabel    string            `json:"status_label"`
	PaymentStatus  string            `json:"payment_status"`
	ScheduledStart time.Time         `json:"scheduled_start"`
	ScheduledEnd   *time.Time        `json:"scheduled_end,omitempty"`
	TotalHours     float64           `json:"total_hours"`
	TotalPrice     float64           `json:"total_price"`
	SlipURL        string            `json:"slip_url,omitempty"`
	Note           string            `json:"note,omitempty"`
	CancelReason   string            `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Location       *LocationResponse `json:"location,omitempty"`
}

// LocationResponse is the HTTP response for booking addresses.
type LocationResponse struct {
	PickupAddress   string  `json:"pickup_address"`
	PickupLat       float64 `json:"pickup_lat"`
	PickupLng       float64 `json:"pickup_lng"`
	DropoffAddress  string  `json:"dropoff_address"`
	DropoffLat      float64 `json:"dropoff_lat"`
	DropoffLng      float64 `json:"dropoff_lng"`
	DistanceMeters  int     `json:"distance_meters,omitempty"`
	DurationSeconds int     `json:"duration_seconds,omitempty"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:             b.ID,
		UserID:         b.UserID,
		DriverID:       b.DriverID,
		Status:         string(b.Status),
		StatusLabel:    b.Status.Label(),
		PaymentStatus:  string(b.PaymentStatus),
		ScheduledStart: b.ScheduledStart,
		ScheduledEnd:   b.ScheduledEnd,
		TotalHours:     b.TotalHours,
		TotalPrice:     b.TotalPrice,
		SlipURL:        b.SlipURL,
		Note:           b.Note,
		CancelReason:   b.CancelReason,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func toBookingDetailResponse(d *service.BookingDetail) BookingResponse {
	resp := toBookingResponse(d.Booking)
	if l := d.Location; l != nil {
		resp.Location = &LocationResponse{
			PickupAddress:   l.PickupAddress,
			PickupLat:       l.PickupLat,
			PickupLng:       l.PickupLng,
			DropoffAddress:  l.DropoffAddress,
			DropoffLat:      l.DropoffLat,
			DropoffLng:      l.DropoffLng,
			DistanceMeters:  l.DistanceMeters,
			DurationSeconds: l.DurationSeconds,
		}
	}
	return resp
}

func toBookingResponses(bookings []*domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	return out
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	LicensePlate string  `json:"license_plate,omitempty"`
	VehicleModel string  `json:"vehicle_model,omitempty"`
	Status       string  `json:"status"`
	Verified     string  `json:"verified"`
	DistanceKm   float64 `json:"distance_km,omitempty"`
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:           d.ID,
		Name:         d.Name,
		Phone:        d.Phone,
		LicensePlate: d.LicensePlate,
		VehicleModel: d.VehicleModel,
		Status:       string(d.Status),
		Verified:     string(d.Verified),
	}
}

// ReportResponse is the HTTP response for report data.
type ReportResponse struct {
	ID           int64      `json:"id"`
	BookingID    int64      `json:"booking_id"`
	ReporterID   int64      `json:"reporter_id"`
	ReporterType string     `json:"reporter_type"`
	Title        string     `json:"title"`
	Detail       string     `json:"detail"`
	Reply        string     `json:"reply,omitempty"`
	IsReplied    bool       `json:"is_replied"`
	RepliedAt    *time.Time `json:"replied_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toReportResponse(r *domain.Report) ReportResponse {
	return ReportResponse{
		ID:           r.ID,
		BookingID:    r.BookingID,
		ReporterID:   r.ReporterID,
		ReporterType: string(r.ReporterType),
		Title:        r.Title,
		Detail:       r.Detail,
		Reply:        r.Reply,
		IsReplied:    r.IsReplied,
		RepliedAt:    r.RepliedAt,
		CreatedAt:    r.CreatedAt,
	}
}
