package service

import (
	"time"

	"medride/internal/domain"
)

const (
	// EarlyStartWindow is how long before the scheduled start the driver
	// pipeline opens. Earlier than that a driver may only start the job and
	// go to the pickup.
	EarlyStartWindow = time.Hour

	// LateAcceptCutoff is how long after the scheduled start a driver may
	// still accept a pool job. The boundary itself is accepted.
	LateAcceptCutoff = 30 * time.Minute
)

// TransitionInput is everything CheckTransition needs to decide.
type TransitionInput struct {
	Current         domain.BookingStatus
	Requested       domain.BookingStatus
	Actor           domain.Actor
	BookingUserID   int64
	BookingDriverID int64
	ScheduledStart  time.Time
	Now             time.Time
}

// transitionFor builds the input for a persisted booking.
func transitionFor(b *domain.Booking, requested domain.BookingStatus, actor domain.Actor, now time.Time) TransitionInput {
	return TransitionInput{
		Current:         b.Status,
		Requested:       requested,
		Actor:           actor,
		BookingUserID:   b.UserID,
		BookingDriverID: b.AssignedDriver(),
		ScheduledStart:  b.ScheduledStart,
		Now:             now,
	}
}

// earlyAllowed lists the statuses a driver may set before the pipeline opens.
// in_progress is the job-start step that leads to the pickup statuses.
var earlyAllowed = map[domain.BookingStatus]bool{
	domain.StatusInProgress:  true,
	domain.StatusGoingPickup: true,
	domain.StatusPickedUp:    true,
}

// userCancellable lists the statuses a user may cancel from.
var userCancellable = map[domain.BookingStatus]bool{
	domain.StatusPending:     true,
	domain.StatusAccepted:    true,
	domain.StatusInProgress:  true,
	domain.StatusGoingPickup: true,
}

// returnable lists the statuses from which a job can go back to the pool.
var returnable = map[domain.BookingStatus]bool{
	domain.StatusAccepted:    true,
	domain.StatusInProgress:  true,
	domain.StatusGoingPickup: true,
}

// CheckTransition decides whether actor may move a booking from Current to
// Requested at Now. It has no side effects.
func CheckTransition(in TransitionInput) error {
	if !in.Requested.IsValid() {
		return ErrInvalidStatus
	}
	if in.Current.IsTerminal() {
		return ErrTerminalState
	}
	if in.Requested == in.Current {
		return ErrAlreadyInStatus
	}

	switch {
	case in.Requested == domain.StatusCancelled:
		return checkCancel(in)
	case in.Requested == domain.StatusPending:
		return checkReturnToPool(in)
	case in.Requested == domain.StatusAccepted:
		return checkAccept(in)
	case in.Requested.IsDriverPipeline():
		return checkPipeline(in)
	case in.Requested == domain.StatusPaymented:
		return checkSlipSubmitted(in)
	case in.Requested == domain.StatusSuccess:
		return checkPaymentVerified(in)
	}
	return ErrInvalidTransition
}

func checkCancel(in TransitionInput) error {
	switch in.Actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleUser:
		if !in.Actor.Is(domain.RoleUser, in.BookingUserID) {
			return ErrNotBookingOwner
		}
		if userCancellable[in.Current] {
			return nil
		}
		if in.Current == domain.StatusPendingPayment || in.Current == domain.StatusPaymented {
			return ErrCannotCancelAfterPayment
		}
		return ErrCannotCancelInTrip
	default:
		return ErrForbiddenAction
	}
}

func checkReturnToPool(in TransitionInput) error {
	if err := requireAssignedDriverOrAdmin(in); err != nil {
		return err
	}
	if !returnable[in.Current] {
		return ErrCannotReturnToPool
	}
	return nil
}

func checkAccept(in TransitionInput) error {
	if !in.Actor.IsDriver() && !in.Actor.IsAdmin() {
		return ErrForbiddenAction
	}
	if in.Current != domain.StatusPending {
		return ErrInvalidTransition
	}
	if in.Actor.IsDriver() && in.Now.After(in.ScheduledStart.Add(LateAcceptCutoff)) {
		return ErrTooLateToAccept
	}
	return nil
}

func checkPipeline(in TransitionInput) error {
	if err := requireAssignedDriverOrAdmin(in); err != nil {
		return err
	}
	if next, ok := in.Current.Next(); !ok || next != in.Requested {
		return ErrInvalidTransition
	}
	if in.Actor.IsDriver() && in.Now.Before(in.ScheduledStart.Add(-EarlyStartWindow)) && !earlyAllowed[in.Requested] {
		return ErrTooEarly
	}
	return nil
}

func checkSlipSubmitted(in TransitionInput) error {
	switch {
	case in.Actor.IsUser() && !in.Actor.Is(domain.RoleUser, in.BookingUserID):
		return ErrNotBookingOwner
	case !in.Actor.IsUser():
		return ErrForbiddenAction
	case in.Current != domain.StatusPendingPayment:
		return ErrInvalidTransition
	}
	return nil
}

func checkPaymentVerified(in TransitionInput) error {
	if !in.Actor.IsAdmin() {
		return ErrForbiddenAction
	}
	if in.Current != domain.StatusPaymented {
		return ErrInvalidTransition
	}
	return nil
}

func requireAssignedDriverOrAdmin(in TransitionInput) error {
	switch in.Actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleDriver:
		if !in.Actor.Is(domain.RoleDriver, in.BookingDriverID) {
			return ErrNotAssignedDriver
		}
		return nil
	default:
		return ErrForbiddenAction
	}
}
