package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"medride/internal/domain"
	"medride/internal/repository"
)

// EventName is the realtime event published after a committed change.
type EventName string

const (
	EventBookingCreated       EventName = "booking.created"
	EventBookingAssigned      EventName = "booking.assigned"
	EventBookingAccepted      EventName = "booking.accepted"
	EventBookingStatusChanged EventName = "booking.status_changed"
	EventBookingReturned      EventName = "booking.returned"
	EventBookingCancelled     EventName = "booking.cancelled"
	EventBookingDeleted       EventName = "booking.deleted"
	EventSlipUploaded         EventName = "payment.slip_uploaded"
	EventPaymentVerified      EventName = "payment.verified"
	EventPaymentRejected      EventName = "payment.rejected"
	EventReportCreated        EventName = "report.created"
	EventReportReplied        EventName = "report.replied"
	EventDriverUpdated        EventName = "driver.updated"
	EventDriverLocation       EventName = "driver.location"
)

// Realtime channel names.
const (
	ChannelAdmin      = "private-admin"
	ChannelDriverPool = "private-driver"
)

// DriverChannel returns the private channel of one driver.
func DriverChannel(driverID int64) string {
	return fmt.Sprintf("private-driver-%d", driverID)
}

// UserChannel returns the private channel of one user.
func UserChannel(userID int64) string {
	return fmt.Sprintf("private-user-%d", userID)
}

// poolWideEvents change what every driver sees in the pool.
var poolWideEvents = map[EventName]bool{
	EventBookingCreated:  true,
	EventBookingReturned: true,
	EventBookingDeleted:  true,
}

// IsPoolWide reports whether the event must reach the driver pool channel.
// A cancelled booking with no driver leaves the pool, so it counts too.
func IsPoolWide(event EventName, driverID int64) bool {
	return poolWideEvents[event] || (event == EventBookingCancelled && driverID == 0)
}

// Audiences resolves the channels an event is published to.
func Audiences(event EventName, driverID, userID int64) []string {
	channels := []string{ChannelAdmin}
	if driverID > 0 {
		channels = append(channels, DriverChannel(driverID))
	}
	if userID > 0 {
		channels = append(channels, UserChannel(userID))
	}
	if IsPoolWide(event, driverID) {
		channels = append(channels, ChannelDriverPool)
	}
	return channels
}

// Event describes a committed change to broadcast.
type Event struct {
	ID        string
	Name      EventName
	BookingID int64
	DriverID  int64
	UserID    int64
	Status    domain.BookingStatus
	Data      map[string]any

	// ChatText, when set, is pushed to every chat recipient that has a
	// linked chat account.
	ChatText       string
	ChatRecipients []domain.Actor
}

// EventPayload is the JSON body delivered to realtime subscribers.
type EventPayload struct {
	ID          string         `json:"id"`
	Event       string         `json:"event"`
	BookingID   int64          `json:"booking_id,omitempty"`
	Status      string         `json:"status,omitempty"`
	StatusLabel string         `json:"status_label,omitempty"`
	DriverID    int64          `json:"driver_id,omitempty"`
	UserID      int64          `json:"user_id,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// Publisher delivers an event to realtime channels.
type Publisher interface {
	Publish(ctx context.Context, channels []string, event string, payload any) error
}

// ChatSender pushes a text message to an external chat account.
type ChatSender interface {
	PushText(ctx context.Context, chatUserID, text string) error
}

// ContactDirectory resolves the chat account of an actor.
type ContactDirectory interface {
	ChatUserID(ctx context.Context, actor domain.Actor) (string, error)
}

const notifyTimeout = 5 * time.Second

// NotificationService fans committed changes out to realtime channels and chat.
// Delivery is best effort: failures are logged and never returned.
type NotificationService struct {
	publishers []Publisher
	chat       ChatSender
	contacts   ContactDirectory
	logger     *zap.Logger
	now        func() time.Time
}

// NewNotificationService creates a new NotificationService. chat and
// contacts may be nil to disable chat delivery.
func NewNotificationService(logger *zap.Logger, chat ChatSender, contacts ContactDirectory, publishers ...Publisher) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		publishers: publishers,
		chat:       chat,
		contacts:   contacts,
		logger:     logger,
		now:        time.Now,
	}
}

// Notify delivers the event. Call it only after the change has committed.
func (s *NotificationService) Notify(ctx context.Context, event Event) {
	if s == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	channels := Audiences(event.Name, event.DriverID, event.UserID)
	payload := EventPayload{
		ID:         event.ID,
		Event:      string(event.Name),
		BookingID:  event.BookingID,
		DriverID:   event.DriverID,
		UserID:     event.UserID,
		Data:       event.Data,
		OccurredAt: s.now(),
	}
	if event.Status != "" {
		payload.Status = string(event.Status)
		payload.StatusLabel = event.Status.Label()
	}

	for _, p := range s.publishers {
		if err := p.Publish(ctx, channels, string(event.Name), payload); err != nil {
			s.swallow(ctx, "realtime publish failed", err,
				zap.String("event", string(event.Name)),
				zap.Int64("booking_id", event.BookingID),
				zap.Strings("channels", channels),
			)
		}
	}

	s.sendChat(ctx, event)
}

func (s *NotificationService) sendChat(ctx context.Context, event Event) {
	if event.ChatText == "" || s.chat == nil || s.contacts == nil {
		return
	}

	for _, recipient := range event.ChatRecipients {
		chatUserID, err := s.contacts.ChatUserID(ctx, recipient)
		if err != nil {
			s.swallow(ctx, "chat contact lookup failed", err, zap.Stringer("recipient", recipient))
			continue
		}
		if chatUserID == "" {
			continue
		}
		if err := s.chat.PushText(ctx, chatUserID, event.ChatText); err != nil {
			s.swallow(ctx, "chat delivery failed", err,
				zap.Stringer("recipient", recipient),
				zap.Int64("booking_id", event.BookingID),
			)
		}
	}
}

func (s *NotificationService) swallow(ctx context.Context, msg string, err error, fields ...zap.Field) {
	s.logger.Warn(msg, append(fields, zap.Error(err))...)
	newrelic.FromContext(ctx).NoticeError(err)
}

// RepositoryContacts resolves chat accounts from the user and driver tables.
type RepositoryContacts struct {
	users   repository.UserRepository
	drivers repository.DriverRepository
}

// NewRepositoryContacts creates a new RepositoryContacts.
func NewRepositoryContacts(users repository.UserRepository, drivers repository.DriverRepository) *RepositoryContacts {
	return &RepositoryContacts{users: users, drivers: drivers}
}

// ChatUserID returns the linked chat account of actor, or "".
func (c *RepositoryContacts) ChatUserID(ctx context.Context, actor domain.Actor) (string, error) {
	switch actor.Role {
	case domain.RoleUser:
		user, err := c.users.GetByID(ctx, actor.ID)
		if err != nil {
			return "", err
		}
		return user.LineUserID, nil
	case domain.RoleDriver:
		driver, err := c.drivers.GetByID(ctx, actor.ID)
		if err != nil {
			return "", err
		}
		return driver.LineUserID, nil
	}
	return "", nil
}
