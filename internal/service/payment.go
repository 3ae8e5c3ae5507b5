package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medride/internal/domain"
	"medride/internal/redis"
	"medride/internal/repository"
)

// MaxSlipSize is the largest payment slip accepted, in bytes.
const MaxSlipSize = 5 << 20

// slipExtensions maps the accepted slip content types to file extensions.
var slipExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// SlipStorage stores uploaded payment slips.
type SlipStorage interface {
	// Save stores the object under key and returns its public URL.
	Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// PaymentService handles slip upload and admin verification.
type PaymentService struct {
	uow      repository.UnitOfWork
	bookings repository.BookingRepository
	slips    SlipStorage
	audit    *AuditWriter
	feed     changeFeed
	logger   *zap.Logger
	now      func() time.Time
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	uow repository.UnitOfWork,
	bookings repository.BookingRepository,
	slips SlipStorage,
	cache redis.CacheStoreInterface,
	audit *AuditWriter,
	notifier *NotificationService,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		uow:      uow,
		bookings: bookings,
		slips:    slips,
		audit:    audit,
		feed:     newChangeFeed(cache, notifier, logger),
		logger:   logger,
		now:      time.Now,
	}
}

// UploadSlipRequest contains the parameters for submitting a payment slip.
type UploadSlipRequest struct {
	BookingID   int64
	Actor       domain.Actor
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadSlip stores the slip and moves the booking to paymented with the
// payment waiting for admin verification.
func (s *PaymentService) UploadSlip(ctx context.Context, req UploadSlipRequest) (*domain.Booking, error) {
	if req.BookingID <= 0 {
		return nil, ErrInvalidBookingID
	}
	ext, err := validateSlip(req)
	if err != nil {
		return nil, err
	}

	// Check before storing so a rejected request leaves no orphan object.
	current, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSlipAllowed(current, req.Actor); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("slips/%d/%s%s", req.BookingID, uuid.NewString(), ext)
	url, err := s.slips.Save(ctx, key, req.Body, req.Size, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store slip: %w", err)
	}

	var booking *domain.Booking
	err = s.uow.WithinTx(ctx, func(tx repository.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if err := s.checkSlipAllowed(b, req.Actor); err != nil {
			return err
		}

		change := repository.PaymentChange{
			FromStatus:  domain.StatusPendingPayment,
			ToStatus:    domain.StatusPaymented,
			FromPayment: []domain.PaymentStatus{domain.PaymentPending, domain.PaymentRejected},
			ToPayment:   domain.PaymentWaitingVerify,
			SlipURL:     url,
		}
		if err := tx.Bookings().UpdatePayment(ctx, b.ID, change); err != nil {
			return staleAsConflict(err)
		}
		if err := s.audit.Record(ctx, tx.Logs(), AuditRecord{
			BookingID:   b.ID,
			Actor:       req.Actor,
			EventType:   domain.EventTypePayment,
			EventAction: domain.ActionUploadSlip,
			Message:     "payment slip uploaded",
		}); err != nil {
			return err
		}

		b.Status = domain.StatusPaymented
		b.PaymentStatus = domain.PaymentWaitingVerify
		b.SlipURL = url
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := bookingEvent(EventSlipUploaded, booking)
	event.Data = map[string]any{"slip_url": url}
	event.ChatText = fmt.Sprintf("การจอง #%d: ได้รับสลิปแล้ว รอตรวจสอบ", booking.ID)
	event.ChatRecipients = []domain.Actor{domain.UserActor(booking.UserID)}
	s.feed.publish(ctx, booking.ID, event)

	return booking, nil
}

func validateSlip(req UploadSlipRequest) (string, error) {
	if req.Body == nil || req.Size <= 0 || req.Size > MaxSlipSize {
		return "", ErrInvalidSlip
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(req.ContentType, ";", 2)[0]))
	ext, ok := slipExtensions[contentType]
	if !ok {
		return "", ErrInvalidSlip
	}
	return ext, nil
}

func (s *PaymentService) checkSlipAllowed(b *domain.Booking, actor domain.Actor) error {
	if err := CheckTransition(transitionFor(b, domain.StatusPaymented, actor, s.now())); err != nil {
		return err
	}
	if !b.PaymentStatus.AcceptsSlip() {
		return ErrSlipNotAccepted
	}
	return nil
}

// ReviewRequest contains the parameters for an admin slip review.
type ReviewRequest struct {
	BookingID int64
	Actor     domain.Actor
	Reason    string
}

// Verify accepts the submitted slip and completes the booking.
func (s *PaymentService) Verify(ctx context.Context, req ReviewRequest) (*domain.Booking, error) {
	booking, err := s.review(ctx, req, repository.PaymentChange{
		FromStatus:  domain.StatusPaymented,
		ToStatus:    domain.StatusSuccess,
		FromPayment: []domain.PaymentStatus{domain.PaymentWaitingVerify},
		ToPayment:   domain.PaymentVerified,
	}, domain.ActionVerify, "payment verified")
	if err != nil {
		return nil, err
	}

	event := bookingEvent(EventPaymentVerified, booking)
	event.ChatText = fmt.Sprintf("การจอง #%d: ตรวจสอบการชำระเงินแล้ว ขอบคุณที่ใช้บริการ", booking.ID)
	event.ChatRecipients = []domain.Actor{domain.UserActor(booking.UserID)}
	if booking.HasDriver() {
		event.ChatRecipients = append(event.ChatRecipients, domain.DriverActor(booking.AssignedDriver()))
	}
	s.feed.publish(ctx, booking.ID, event)
	return booking, nil
}

// Reject refuses the submitted slip and sends the booking back to
// pending_payment so the user can upload a new one.
func (s *PaymentService) Reject(ctx context.Context, req ReviewRequest) (*domain.Booking, error) {
	reason := strings.TrimSpace(req.Reason)
	message := "payment rejected"
	if reason != "" {
		message += ": " + reason
	}

	booking, err := s.review(ctx, req, repository.PaymentChange{
		FromStatus:  domain.StatusPaymented,
		ToStatus:    domain.StatusPendingPayment,
		FromPayment: []domain.PaymentStatus{domain.PaymentWaitingVerify},
		ToPayment:   domain.PaymentRejected,
	}, domain.ActionReject, message)
	if err != nil {
		return nil, err
	}

	event := bookingEvent(EventPaymentRejected, booking)
	event.Data = map[string]any{"reason": reason}
	event.ChatText = fmt.Sprintf("การจอง #%d: สลิปไม่ผ่านการตรวจสอบ กรุณาอัปโหลดใหม่", booking.ID)
	if reason != "" {
		event.ChatText += " (" + reason + ")"
	}
	event.ChatRecipients = []domain.Actor{domain.UserActor(booking.UserID)}
	s.feed.publish(ctx, booking.ID, event)
	return booking, nil
}

// review applies an admin decision on a slip waiting for verification.
func (s *PaymentService) review(ctx context.Context, req ReviewRequest, change repository.PaymentChange, action, message string) (*domain.Booking, error) {
	if !req.Actor.IsAdmin() {
		return nil, ErrForbiddenAction
	}
	if req.BookingID <= 0 {
		return nil, ErrInvalidBookingID
	}

	var booking *domain.Booking
	err := s.uow.WithinTx(ctx, func(tx repository.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if change.ToStatus == domain.StatusSuccess {
			if err := CheckTransition(transitionFor(b, domain.StatusSuccess, req.Actor, s.now())); err != nil {
				if errors.Is(err, ErrInvalidTransition) {
					return ErrPaymentNotAwaitingVerify
				}
				return err
			}
		} else if b.Status.IsTerminal() {
			return ErrTerminalState
		}
		if b.Status != domain.StatusPaymented || b.PaymentStatus != domain.PaymentWaitingVerify {
			return ErrPaymentNotAwaitingVerify
		}

		if err := tx.Bookings().UpdatePayment(ctx, b.ID, change); err != nil {
			return staleAsConflict(err)
		}
		if err := s.audit.Record(ctx, tx.Logs(), AuditRecord{
			BookingID:   b.ID,
			Actor:       req.Actor,
			EventType:   domain.EventTypePayment,
			EventAction: action,
			Message:     message,
		}); err != nil {
			return err
		}

		b.Status = change.ToStatus
		b.PaymentStatus = change.ToPayment
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment reviewed",
		zap.Int64("booking_id", booking.ID),
		zap.String("action", action),
		zap.Stringer("actor", req.Actor),
	)
	return booking, nil
}
