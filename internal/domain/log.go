package domain

import "time"

// Log event types.
const (
	EventTypeBooking     = "booking"
	EventTypeAssignment  = "assignment"
	EventTypeStatus      = "status"
	EventTypeUserCancel  = "user_cancel"
	EventTypeAdminCancel = "admin_cancel"
	EventTypeDriver      = "driver"
	EventTypePayment     = "payment"
	EventTypeReport      = "report"
)

// Log event actions.
const (
	ActionCreate       = "create"
	ActionAssign       = "assign"
	ActionAccept       = "accept"
	ActionUpdateStatus = "update_status"
	ActionCancel       = "cancel"
	ActionReturnToPool = "return_to_pool"
	ActionUploadSlip   = "upload_slip"
	ActionVerify       = "verify"
	ActionReject       = "reject"
	ActionReply        = "reply"
)

// LogEntry is an immutable audit record attached to a booking.
type LogEntry struct {
	ID          int64
	BookingID   int64
	EventType   string
	EventAction string
	Message     string
	ActorID     int64
	ActorType   Role
	CreatedAt   time.Time
}

type labelKey struct {
	eventType string
	action    string
	actor     Role
}

// AdminStatusLabel prefixes every admin-authored transition in a timeline.
const AdminStatusLabel = "admin changed status"

// Entries with an empty actor apply to any role.
var timelineLabels = map[labelKey]string{
	{EventTypeBooking, ActionCreate, RoleUser}:        "booking created",
	{EventTypeAssignment, ActionAccept, RoleDriver}:   "driver accepted the job",
	{EventTypeAssignment, ActionAssign, ""}:           "driver assigned",
	{EventTypeStatus, ActionUpdateStatus, RoleDriver}: "driver updated status",
	{EventTypeUserCancel, ActionCancel, RoleUser}:     "user cancelled the booking",
	{EventTypeAdminCancel, ActionCancel, ""}:          "booking cancelled by admin",
	{EventTypeDriver, ActionReturnToPool, RoleDriver}: "driver returned the job to the pool",
	{EventTypePayment, ActionUploadSlip, RoleUser}:    "payment slip uploaded",
	{EventTypePayment, ActionVerify, ""}:              "payment verified",
	{EventTypePayment, ActionReject, ""}:              "payment rejected",
	{EventTypeReport, ActionCreate, RoleUser}:         "user filed a report",
	{EventTypeReport, ActionCreate, RoleDriver}:       "driver filed a report",
	{EventTypeReport, ActionReply, RoleAdmin}:         "admin replied to a report",
}

var transitionEventTypes = map[string]bool{
	EventTypeAssignment:  true,
	EventTypeStatus:      true,
	EventTypeAdminCancel: true,
	EventTypeDriver:      true,
	EventTypePayment:     true,
}

// TimelineLabel maps a log row to a human readable label.
func TimelineLabel(eventType, action string, actor Role) string {
	if actor == RoleAdmin && transitionEventTypes[eventType] {
		return AdminStatusLabel
	}
	if label, ok := timelineLabels[labelKey{eventType, action, actor}]; ok {
		return label
	}
	if label, ok := timelineLabels[labelKey{eventType, action, ""}]; ok {
		return label
	}
	return eventType + "/" + action
}
