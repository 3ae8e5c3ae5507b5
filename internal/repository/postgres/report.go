package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"medride/internal/domain"
	"medride/internal/repository"
)

const reportColumns = `id, booking_id, reporter_id, reporter_type, title, detail, reply, is_replied, replied_by, replied_at, created_at`

// ReportRepository is a PostgreSQL implementation of repository.ReportRepository.
type ReportRepository struct {
	q Querier
}

// NewReportRepository creates a new PostgreSQL report repository.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{q: db}
}

// NewReportRepositoryWithTx creates a report repository using a transaction.
func NewReportRepositoryWithTx(tx *sql.Tx) *ReportRepository {
	return &ReportRepository{q: tx}
}

func scanReport(row rowScanner) (*domain.Report, error) {
	var report domain.Report
	var reply sql.NullString
	var repliedBy sql.NullInt64
	var repliedAt sql.NullTime

	err := row.Scan(
		&report.ID,
		&report.BookingID,
		&report.ReporterID,
		&report.ReporterType,
		&report.Title,
		&report.Detail,
		&reply,
		&report.IsReplied,
		&repliedBy,
		&repliedAt,
		&report.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	report.Reply = reply.String
	if repliedBy.Valid {
		id := repliedBy.Int64
		report.RepliedBy = &id
	}
	if repliedAt.Valid {
		at := repliedAt.Time
		report.RepliedAt = &at
	}
	return &report, nil
}

// Create persists a new report.
func (r *ReportRepository) Create(ctx context.Context, report *domain.Report) error {
	query := `
		INSERT INTO reports (booking_id, reporter_id, reporter_type, title, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}
	return r.q.QueryRowContext(ctx, query,
		report.BookingID,
		report.ReporterID,
		report.ReporterType,
		report.Title,
		report.Detail,
		report.CreatedAt,
	).Scan(&report.ID)
}

// GetByID retrieves a report by ID.
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*domain.Report, error) {
	report, err := scanReport(r.q.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return report, nil
}

// List retrieves reports, newest first.
func (r *ReportRepository) List(ctx context.Context, onlyOpen bool) ([]*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports`
	if onlyOpen {
		query += ` WHERE is_replied = false`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT 200`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*domain.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// Reply stores the admin reply exactly once.
func (r *ReportRepository) Reply(ctx context.Context, id int64, reply string, adminID int64, at time.Time) error {
	query := `
		UPDATE reports
		SET reply = $1, is_replied = true, replied_by = $2, replied_at = $3
		WHERE id = $4 AND is_replied = false
	`
	result, err := r.q.ExecContext(ctx, query, reply, adminID, at, id)
	if err != nil {
		return err
	}
	return checkAffected(result, repository.ErrStaleState)
}

// DeleteByBooking removes the reports of a deleted booking.
func (r *ReportRepository) DeleteByBooking(ctx context.Context, bookingID int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM reports WHERE booking_id = $1`, bookingID)
	return err
}
