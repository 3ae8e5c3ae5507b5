package domain

import "fmt"

// BookingStatus represents where a booking is in its lifecycle.
type BookingStatus string

const (
	StatusPending           BookingStatus = "pending"
	StatusAccepted          BookingStatus = "accepted"
	StatusInProgress        BookingStatus = "in_progress"
	StatusGoingPickup       BookingStatus = "going_pickup"
	StatusPickedUp          BookingStatus = "picked_up"
	StatusHeadingToHospital BookingStatus = "heading_to_hospital"
	StatusArrivedAtHospital BookingStatus = "arrived_at_hospital"
	StatusWaitingForReturn  BookingStatus = "waiting_for_return"
	StatusHeadingHome       BookingStatus = "heading_home"
	StatusArrivedHome       BookingStatus = "arrived_home"
	StatusPendingPayment    BookingStatus = "pending_payment"
	StatusPaymented         BookingStatus = "paymented"
	StatusSuccess           BookingStatus = "success"
	StatusCancelled         BookingStatus = "cancelled"
)

// statusInfo is one row of the booking state machine.
type statusInfo struct {
	next     BookingStatus
	pipeline bool // advanced by the assigned driver
	label    string
	thai     string
}

// Pipeline order. Every consumer (transition checks, timeline labels,
// chat messages, status listings) reads from this table.
var pipelineOrder = []BookingStatus{
	StatusPending,
	StatusAccepted,
	StatusInProgress,
	StatusGoingPickup,
	StatusPickedUp,
	StatusHeadingToHospital,
	StatusArrivedAtHospital,
	StatusWaitingForReturn,
	StatusHeadingHome,
	StatusArrivedHome,
	StatusPendingPayment,
	StatusPaymented,
	StatusSuccess,
}

var statusTable = map[BookingStatus]statusInfo{
	StatusPending:           {next: StatusAccepted, label: "Waiting for driver", thai: "รอคนขับรับงาน"},
	StatusAccepted:          {next: StatusInProgress, label: "Driver accepted", thai: "คนขับรับงานแล้ว"},
	StatusInProgress:        {next: StatusGoingPickup, pipeline: true, label: "Job started", thai: "เริ่มงาน"},
	StatusGoingPickup:       {next: StatusPickedUp, pipeline: true, label: "Heading to pickup", thai: "กำลังไปรับผู้ป่วย"},
	StatusPickedUp:          {next: StatusHeadingToHospital, pipeline: true, label: "Patient picked up", thai: "รับผู้ป่วยแล้ว"},
	StatusHeadingToHospital: {next: StatusArrivedAtHospital, pipeline: true, label: "Heading to hospital", thai: "กำลังไปโรงพยาบาล"},
	StatusArrivedAtHospital: {next: StatusWaitingForReturn, pipeline: true, label: "Arrived at hospital", thai: "ถึงโรงพยาบาลแล้ว"},
	StatusWaitingForReturn:  {next: StatusHeadingHome, pipeline: true, label: "Waiting for return trip", thai: "รอรับกลับ"},
	StatusHeadingHome:       {next: StatusArrivedHome, pipeline: true, label: "Heading home", thai: "กำลังเดินทางกลับบ้าน"},
	StatusArrivedHome:       {next: StatusPendingPayment, pipeline: true, label: "Arrived home", thai: "ถึงบ้านแล้ว"},
	StatusPendingPayment:    {next: StatusPaymented, pipeline: true, label: "Waiting for payment", thai: "รอชำระเงิน"},
	StatusPaymented:         {next: StatusSuccess, label: "Payment submitted", thai: "ชำระเงินแล้ว รอตรวจสอบ"},
	StatusSuccess:           {label: "Completed", thai: "เสร็จสิ้น"},
	StatusCancelled:         {label: "Cancelled", thai: "ยกเลิกแล้ว"},
}

// ParseBookingStatus converts a wire string to a BookingStatus.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown booking status %q", s)
	}
	return status, nil
}

// AllStatuses returns every status in pipeline order, followed by cancelled.
func AllStatuses() []BookingStatus {
	out := make([]BookingStatus, 0, len(pipelineOrder)+1)
	out = append(out, pipelineOrder...)
	return append(out, StatusCancelled)
}

// IsValid reports whether s is a known status.
func (s BookingStatus) IsValid() bool {
	_, ok := statusTable[s]
	return ok
}

// Next returns the single legal successor of s.
func (s BookingStatus) Next() (BookingStatus, bool) {
	info, ok := statusTable[s]
	if !ok || info.next == "" {
		return "", false
	}
	return info.next, true
}

// IsTerminal reports whether no further transition is possible.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusCancelled
}

// IsActive reports whether a booking in this status occupies its driver.
func (s BookingStatus) IsActive() bool {
	return s.IsValid() && s != StatusPending && !s.IsTerminal()
}

// IsDriverPipeline reports whether the assigned driver advances into s.
func (s BookingStatus) IsDriverPipeline() bool {
	return statusTable[s].pipeline
}

// Position returns the index of s in the pipeline, or -1 for cancelled/unknown.
func (s BookingStatus) Position() int {
	for i, p := range pipelineOrder {
		if p == s {
			return i
		}
	}
	return -1
}

// Before reports whether s comes strictly earlier in the pipeline than other.
func (s BookingStatus) Before(other BookingStatus) bool {
	a, b := s.Position(), other.Position()
	return a >= 0 && b >= 0 && a < b
}

// Label returns the English display name.
func (s BookingStatus) Label() string {
	if info, ok := statusTable[s]; ok {
		return info.label
	}
	return string(s)
}

// ThaiLabel returns the Thai display name used in chat messages.
func (s BookingStatus) ThaiLabel() string {
	if info, ok := statusTable[s]; ok {
		return info.thai
	}
	return string(s)
}

// ActiveStatuses returns every status that occupies a driver.
func ActiveStatuses() []BookingStatus {
	var out []BookingStatus
	for _, s := range pipelineOrder {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out
}
