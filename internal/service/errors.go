package service

import "errors"

// Validation errors.
var (
	// ErrInvalidStatus is returned when a requested status is not a known value.
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrInvalidBookingID is returned when a booking id is missing or not positive.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidDriverID is returned when a driver id is missing or not positive.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidSchedule is returned when start/end times are missing or inverted.
	ErrInvalidSchedule = errors.New("invalid schedule: end time must be after start time")

	// ErrInvalidAddress is returned when pickup or hospital address is empty.
	ErrInvalidAddress = errors.New("pickup and hospital addresses are required")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidSlip is returned for an empty, oversized or non-image slip.
	ErrInvalidSlip = errors.New("invalid payment slip")

	// ErrInvalidReport is returned when a report title or detail is empty.
	ErrInvalidReport = errors.New("report title and detail are required")

	// ErrEmptyReply is returned when an admin reply is empty.
	ErrEmptyReply = errors.New("reply must not be empty")

	// ErrNoPickupCoordinates is returned when a booking's pickup was never geocoded.
	ErrNoPickupCoordinates = errors.New("booking has no pickup coordinates")

	// ErrInvalidDriverState is returned for an unknown driver status or verification value.
	ErrInvalidDriverState = errors.New("invalid driver status or verification value")
)

// Authorization errors.
var (
	// ErrForbiddenAction is returned when the actor's role may not perform the action.
	ErrForbiddenAction = errors.New("action not permitted for this role")

	// ErrNotBookingOwner is returned when a user acts on someone else's booking.
	ErrNotBookingOwner = errors.New("booking belongs to another user")

	// ErrNotAssignedDriver is returned when a driver acts on a booking bound to someone else.
	ErrNotAssignedDriver = errors.New("driver is not assigned to this booking")

	// ErrInvalidToken is returned when a realtime identity token is missing or invalid.
	ErrInvalidToken = errors.New("invalid identity token")
)

// Conflict errors.
var (
	// ErrBookingAlreadyTaken is returned when the booking already has a driver.
	ErrBookingAlreadyTaken = errors.New("this job was already taken")

	// ErrAssignmentInProgress is returned when another assignment holds the booking lock.
	ErrAssignmentInProgress = errors.New("another assignment for this booking is in progress")

	// ErrDriverOffline is returned when the candidate driver is not active.
	ErrDriverOffline = errors.New("driver is offline")

	// ErrDriverBanned is returned when the candidate driver is banned.
	ErrDriverBanned = errors.New("driver is banned")

	// ErrDriverUnverified is returned when the candidate driver is not approved.
	ErrDriverUnverified = errors.New("driver is not verified")

	// ErrDriverBusy is returned when the candidate driver already holds an active booking.
	ErrDriverBusy = errors.New("driver already has an active job")

	// ErrTerminalState is returned when the booking already finished or was cancelled.
	ErrTerminalState = errors.New("booking already completed or cancelled")

	// ErrAlreadyInStatus is returned when the booking is already in the requested status.
	ErrAlreadyInStatus = errors.New("booking is already in that status")

	// ErrInvalidTransition is returned when the requested status is not the next one.
	ErrInvalidTransition = errors.New("status transition not allowed from current status")

	// ErrTooEarly is returned when a pipeline status is requested too long before the start.
	ErrTooEarly = errors.New("too early for this status")

	// ErrTooLateToAccept is returned when a driver accepts too long after the start.
	ErrTooLateToAccept = errors.New("too late to accept this job")

	// ErrCannotCancelInTrip is returned when cancelling after the patient was picked up.
	ErrCannotCancelInTrip = errors.New("cannot cancel while the trip is under way")

	// ErrCannotCancelAfterPayment is returned when cancelling once payment is due or made.
	ErrCannotCancelAfterPayment = errors.New("cannot cancel after payment")

	// ErrCannotReturnToPool is returned when the job can no longer go back to the pool.
	ErrCannotReturnToPool = errors.New("job can no longer be returned to the pool")

	// ErrPaymentNotAwaitingVerify is returned when verifying a booking without a pending slip.
	ErrPaymentNotAwaitingVerify = errors.New("no payment slip waiting for verification")

	// ErrSlipNotAccepted is returned when uploading a slip in the wrong payment state.
	ErrSlipNotAccepted = errors.New("payment slip cannot be uploaded in this state")

	// ErrReportAlreadyReplied is returned when a report already has an admin reply.
	ErrReportAlreadyReplied = errors.New("report already replied")

	// ErrStaleStatus is returned when the booking changed between read and write.
	ErrStaleStatus = errors.New("booking was changed by another request, reload and retry")
)
