package service

import (
	"context"
	"fmt"
	"time"

	"medride/internal/domain"
	"medride/internal/repository"
)

// AuditWriter appends audit rows inside the caller's transaction.
type AuditWriter struct {
	now func() time.Time
}

// NewAuditWriter creates a new AuditWriter.
func NewAuditWriter() *AuditWriter {
	return &AuditWriter{now: time.Now}
}

// AuditRecord is one mutating action to log.
type AuditRecord struct {
	BookingID   int64
	Actor       domain.Actor
	EventType   string
	EventAction string
	Message     string
}

// Record appends the row through logs, which must be bound to the same
// transaction as the mutation it describes.
func (w *AuditWriter) Record(ctx context.Context, logs repository.LogRepository, rec AuditRecord) error {
	entry := &domain.LogEntry{
		BookingID:   rec.BookingID,
		EventType:   rec.EventType,
		EventAction: rec.EventAction,
		Message:     rec.Message,
		ActorID:     rec.Actor.ID,
		ActorType:   rec.Actor.Role,
		CreatedAt:   w.now(),
	}
	if err := logs.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// TimelineEntry is a log row rendered for display.
type TimelineEntry struct {
	At          time.Time   `json:"at"`
	Label       string      `json:"label"`
	Message     string      `json:"message"`
	ActorType   domain.Role `json:"actor_type"`
	ActorID     int64       `json:"actor_id"`
	EventType   string      `json:"event_type"`
	EventAction string      `json:"event_action"`
}

// BuildTimeline maps chronologically ordered log rows to display entries.
func BuildTimeline(entries []*domain.LogEntry) []TimelineEntry {
	timeline := make([]TimelineEntry, 0, len(entries))
	for _, e := range entries {
		timeline = append(timeline, TimelineEntry{
			At:          e.CreatedAt,
			Label:       domain.TimelineLabel(e.EventType, e.EventAction, e.ActorType),
			Message:     e.Message,
			ActorType:   e.ActorType,
			ActorID:     e.ActorID,
			EventType:   e.EventType,
			EventAction: e.EventAction,
		})
	}
	return timeline
}

func statusMessage(from, to domain.BookingStatus) string {
	return fmt.Sprintf("%s -> %s", from, to)
}
