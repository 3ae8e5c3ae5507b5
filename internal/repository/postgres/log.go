package postgres

import (
	"context"
	"database/sql"
	"time"

	"medride/internal/domain"
)

// LogRepository is a PostgreSQL implementation of repository.LogRepository.
type LogRepository struct {
	q Querier
}

// NewLogRepository creates a new PostgreSQL log repository.
func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{q: db}
}

// NewLogRepositoryWithTx creates a log repository using a transaction.
func NewLogRepositoryWithTx(tx *sql.Tx) *LogRepository {
	return &LogRepository{q: tx}
}

// Append inserts an audit row.
func (r *LogRepository) Append(ctx context.Context, entry *domain.LogEntry) error {
	query := `
		INSERT INTO logs (booking_id, event_type, event_action, message, actor_id, actor_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.q.QueryRowContext(ctx, query,
		entry.BookingID,
		entry.EventType,
		entry.EventAction,
		entry.Message,
		entry.ActorID,
		entry.ActorType,
		entry.CreatedAt,
	).Scan(&entry.ID)
}

// ListByBooking returns a booking's audit rows in chronological order.
func (r *LogRepository) ListByBooking(ctx context.Context, bookingID int64) ([]*domain.LogEntry, error) {
	query := `
		SELECT id, booking_id, event_type, event_action, message, actor_id, actor_type, created_at
		FROM logs WHERE booking_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.q.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		if err := rows.Scan(&e.ID, &e.BookingID, &e.EventType, &e.EventAction, &e.Message, &e.ActorID, &e.ActorType, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// DeleteByBooking removes the audit rows of a deleted booking.
func (r *LogRepository) DeleteByBooking(ctx context.Context, bookingID int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM logs WHERE booking_id = $1`, bookingID)
	return err
}
