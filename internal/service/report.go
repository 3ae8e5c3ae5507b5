package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"medride/internal/domain"
	"medride/internal/repository"
)

// ReportService handles issues raised against bookings.
type ReportService struct {
	uow      repository.UnitOfWork
	bookings repository.BookingRepository
	reports  repository.ReportRepository
	audit    *AuditWriter
	notifier *NotificationService
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(
	uow repository.UnitOfWork,
	bookings repository.BookingRepository,
	reports repository.ReportRepository,
	audit *AuditWriter,
	notifier *NotificationService,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		uow:      uow,
		bookings: bookings,
		reports:  reports,
		audit:    audit,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateReportRequest contains the parameters for filing a report.
type CreateReportRequest struct {
	BookingID int64
	Actor     domain.Actor
	Title     string
	Detail    string
}

// Create files a report. Only the booking owner and its assigned driver may report.
func (s *ReportService) Create(ctx context.Context, req CreateReportRequest) (*domain.Report, error) {
	if req.BookingID <= 0 {
		return nil, ErrInvalidBookingID
	}
	title, detail := strings.TrimSpace(req.Title), strings.TrimSpace(req.Detail)
	if title == "" || detail == "" {
		return nil, ErrInvalidReport
	}

	booking, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	switch req.Actor.Role {
	case domain.RoleUser:
		if !req.Actor.Is(domain.RoleUser, booking.UserID) {
			return nil, ErrNotBookingOwner
		}
	case domain.RoleDriver:
		if !req.Actor.Is(domain.RoleDriver, booking.AssignedDriver()) {
			return nil, ErrNotAssignedDriver
		}
	default:
		return nil, ErrForbiddenAction
	}

	report := &domain.Report{
		BookingID:    booking.ID,
		ReporterID:   req.Actor.ID,
		ReporterType: req.Actor.Role,
		Title:        title,
		Detail:       detail,
		CreatedAt:    s.now(),
	}
	err = s.uow.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Reports().Create(ctx, report); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		return s.audit.Record(ctx, tx.Logs(), AuditRecord{
			BookingID:   booking.ID,
			Actor:       req.Actor,
			EventType:   domain.EventTypeReport,
			EventAction: domain.ActionCreate,
			Message:     title,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, Event{
		Name:      EventReportCreated,
		BookingID: booking.ID,
		Data:      map[string]any{"report_id": report.ID, "title": title, "reporter_type": string(req.Actor.Role)},
	})
	return report, nil
}

// ReplyRequest contains the parameters for an admin reply.
type ReplyRequest struct {
	ReportID int64
	Actor    domain.Actor
	Reply    string
}

// Reply answers a report. A report can be answered once.
func (s *ReportService) Reply(ctx context.Context, req ReplyRequest) (*domain.Report, error) {
	if !req.Actor.IsAdmin() {
		return nil, ErrForbiddenAction
	}
	reply := strings.TrimSpace(req.Reply)
	if reply == "" {
		return nil, ErrEmptyReply
	}

	var report *domain.Report
	err := s.uow.WithinTx(ctx, func(tx repository.Tx) error {
		r, err := tx.Reports().GetByID(ctx, req.ReportID)
		if err != nil {
			return err
		}
		if r.IsReplied {
			return ErrReportAlreadyReplied
		}

		at := s.now()
		if err := tx.Reports().Reply(ctx, r.ID, reply, req.Actor.ID, at); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return ErrReportAlreadyReplied
			}
			return err
		}
		if err := s.audit.Record(ctx, tx.Logs(), AuditRecord{
			BookingID:   r.BookingID,
			Actor:       req.Actor,
			EventType:   domain.EventTypeReport,
			EventAction: domain.ActionReply,
			Message:     fmt.Sprintf("reply to report %d", r.ID),
		}); err != nil {
			return err
		}

		adminID := req.Actor.ID
		r.Reply = reply
		r.IsReplied = true
		r.RepliedBy = &adminID
		r.RepliedAt = &at
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	reporter := domain.Actor{Role: report.ReporterType, ID: report.ReporterID}
	event := Event{
		Name:           EventReportReplied,
		BookingID:      report.BookingID,
		Data:           map[string]any{"report_id": report.ID, "reply": reply},
		ChatText:       fmt.Sprintf("ตอบกลับรายงาน \"%s\": %s", report.Title, reply),
		ChatRecipients: []domain.Actor{reporter},
	}
	if reporter.IsDriver() {
		event.DriverID = reporter.ID
	} else {
		event.UserID = reporter.ID
	}
	s.notifier.Notify(ctx, event)

	s.logger.Info("report replied", zap.Int64("report_id", report.ID), zap.Stringer("actor", req.Actor))
	return report, nil
}

// List returns reports for the admin inbox.
func (s *ReportService) List(ctx context.Context, actor domain.Actor, onlyOpen bool) ([]*domain.Report, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbiddenAction
	}
	return s.reports.List(ctx, onlyOpen)
}
