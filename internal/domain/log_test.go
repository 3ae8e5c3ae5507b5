package domain

import "testing"

func TestTimelineLabel(t *testing.T) {
	tests := []struct {
		eventType string
		action    string
		actor     Role
		want      string
	}{
		{EventTypeBooking, ActionCreate, RoleUser, "booking created"},
		{EventTypeAssignment, ActionAccept, RoleDriver, "driver accepted the job"},
		{EventTypeStatus, ActionUpdateStatus, RoleDriver, "driver updated status"},
		{EventTypeUserCancel, ActionCancel, RoleUser, "user cancelled the booking"},
		{EventTypeDriver, ActionReturnToPool, RoleDriver, "driver returned the job to the pool"},
		{EventTypePayment, ActionUploadSlip, RoleUser, "payment slip uploaded"},
		{EventTypeReport, ActionCreate, RoleDriver, "driver filed a report"},
		{EventTypeReport, ActionReply, RoleAdmin, "admin replied to a report"},

		// Every admin transition shares one label.
		{EventTypeAssignment, ActionAssign, RoleAdmin, AdminStatusLabel},
		{EventTypeStatus, ActionUpdateStatus, RoleAdmin, AdminStatusLabel},
		{EventTypeAdminCancel, ActionCancel, RoleAdmin, AdminStatusLabel},
		{EventTypePayment, ActionVerify, RoleAdmin, AdminStatusLabel},

		// Role-independent fallbacks.
		{EventTypePayment, ActionVerify, RoleSystem, "payment verified"},
		{EventTypeAdminCancel, ActionCancel, RoleSystem, "booking cancelled by admin"},

		// Unknown rows keep their raw type.
		{"legacy", "import", RoleUser, "legacy/import"},
	}

	for _, tt := range tests {
		if got := TimelineLabel(tt.eventType, tt.action, tt.actor); got != tt.want {
			t.Errorf("TimelineLabel(%s, %s, %s) = %q, want %q", tt.eventType, tt.action, tt.actor, got, tt.want)
		}
	}
}

func TestActor(t *testing.T) {
	if !UserActor(3).Is(RoleUser, 3) || UserActor(3).Is(RoleDriver, 3) {
		t.Error("Is must compare role and id")
	}
	if SystemActor.Is(RoleSystem, 0) {
		t.Error("id 0 never matches")
	}
	if got := DriverActor(7).String(); got != "driver:7" {
		t.Errorf("String() = %q", got)
	}
	if Role("guest").IsValid() {
		t.Error("unknown role accepted")
	}
}
