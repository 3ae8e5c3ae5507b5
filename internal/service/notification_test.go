package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"medride/internal/domain"
)

func TestAudiences(t *testing.T) {
	tests := []struct {
		name     string
		event    EventName
		driverID int64
		userID   int64
		want     []string
	}{
		{"new booking", EventBookingCreated, 0, 10, []string{ChannelAdmin, UserChannel(10), ChannelDriverPool}},
		{"accepted", EventBookingAccepted, 7, 10, []string{ChannelAdmin, DriverChannel(7), UserChannel(10)}},
		{"returned", EventBookingReturned, 7, 10, []string{ChannelAdmin, DriverChannel(7), UserChannel(10), ChannelDriverPool}},
		{"cancelled in pool", EventBookingCancelled, 0, 10, []string{ChannelAdmin, UserChannel(10), ChannelDriverPool}},
		{"cancelled with driver", EventBookingCancelled, 7, 10, []string{ChannelAdmin, DriverChannel(7), UserChannel(10)}},
		{"driver update", EventDriverUpdated, 7, 0, []string{ChannelAdmin, DriverChannel(7)}},
		{"report", EventReportCreated, 0, 0, []string{ChannelAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Audiences(tt.event, tt.driverID, tt.userID)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Audiences() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsPoolWide(t *testing.T) {
	if !IsPoolWide(EventBookingDeleted, 7) {
		t.Error("deleted bookings always leave the pool")
	}
	if IsPoolWide(EventBookingStatusChanged, 0) {
		t.Error("status changes are not pool wide")
	}
	if !IsPoolWide(EventBookingCancelled, 0) || IsPoolWide(EventBookingCancelled, 7) {
		t.Error("only a driverless cancel is pool wide")
	}
}

func TestNotify_Payload(t *testing.T) {
	publisher := NewMockPublisher(nil)
	svc := NewNotificationService(nil, nil, nil, publisher)

	svc.Notify(context.Background(), Event{
		Name:      EventBookingStatusChanged,
		BookingID: 5,
		DriverID:  7,
		UserID:    10,
		Status:    domain.StatusPickedUp,
		Data:      map[string]any{"from": "going_pickup"},
	})

	events := publisher.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(events))
	}
	p := events[0].Payload
	if p.ID == "" {
		t.Error("expected a generated event id")
	}
	if p.Event != string(EventBookingStatusChanged) || p.BookingID != 5 || p.Status != "picked_up" || p.StatusLabel != domain.StatusPickedUp.Label() {
		t.Errorf("unexpected payload: %+v", p)
	}
	if p.OccurredAt.IsZero() {
		t.Error("expected occurred_at")
	}
}

// Delivery failures are logged and never surface to the caller.
func TestNotify_FailuresSwallowed(t *testing.T) {
	broken := &MockPublisher{PublishError: errors.New("pusher down")}
	healthy := &MockPublisher{}
	chat := &MockChatSender{PushError: errors.New("line rate limited")}
	svc := NewNotificationService(nil, chat, MockContacts{}, broken, healthy)

	svc.Notify(context.Background(), Event{
		Name:           EventBookingCancelled,
		BookingID:      1,
		UserID:         10,
		ChatText:       "cancelled",
		ChatRecipients: []domain.Actor{domain.UserActor(10), domain.DriverActor(7)},
	})

	if len(healthy.Events()) != 1 {
		t.Error("a failing publisher must not stop the next one")
	}
	if len(chat.Messages()) != 2 {
		t.Errorf("a failing push must not stop the next recipient, got %d pushes", len(chat.Messages()))
	}
}

func TestNotify_SkipsUnlinkedRecipients(t *testing.T) {
	chat := &MockChatSender{}
	contacts := MockContacts{Unlinked: map[domain.Actor]bool{domain.UserActor(10): true}}
	svc := NewNotificationService(nil, chat, contacts)

	svc.Notify(context.Background(), Event{
		Name:           EventBookingAccepted,
		ChatText:       "accepted",
		ChatRecipients: []domain.Actor{domain.UserActor(10), domain.DriverActor(7)},
	})

	msgs := chat.Messages()
	if len(msgs) != 1 || msgs[0].To != chatID(domain.DriverActor(7)) {
		t.Errorf("expected a single push to the driver, got %+v", msgs)
	}
}

func TestNotify_ContactLookupFailure(t *testing.T) {
	chat := &MockChatSender{}
	svc := NewNotificationService(nil, chat, MockContacts{LookupError: errors.New("db down")})

	svc.Notify(context.Background(), Event{
		Name:           EventBookingAccepted,
		ChatText:       "accepted",
		ChatRecipients: []domain.Actor{domain.UserActor(10)},
	})
	if len(chat.Messages()) != 0 {
		t.Error("no push without a resolved contact")
	}
}

func TestNotify_NilService(t *testing.T) {
	var svc *NotificationService
	svc.Notify(context.Background(), Event{Name: EventBookingCreated})
}

func TestRepositoryContacts(t *testing.T) {
	store := NewMockStore()
	store.AddUser(&domain.User{ID: 10, LineUserID: "U-line-10"})
	store.AddDriver(&domain.Driver{ID: 7, LineUserID: "U-line-7"})
	contacts := NewRepositoryContacts(store.Users(), store.Drivers())
	ctx := context.Background()

	if id, err := contacts.ChatUserID(ctx, domain.UserActor(10)); err != nil || id != "U-line-10" {
		t.Errorf("user: got %q, %v", id, err)
	}
	if id, err := contacts.ChatUserID(ctx, domain.DriverActor(7)); err != nil || id != "U-line-7" {
		t.Errorf("driver: got %q, %v", id, err)
	}
	if id, err := contacts.ChatUserID(ctx, domain.AdminActor(1)); err != nil || id != "" {
		t.Errorf("admin: got %q, %v", id, err)
	}
	if _, err := contacts.ChatUserID(ctx, domain.UserActor(99)); err == nil {
		t.Error("expected an error for an unknown user")
	}
}
