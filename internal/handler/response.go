package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medride/internal/domain"
	"medride/internal/middleware"
	"medride/internal/repository"
	"medride/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

const internalErrorMessage = "internal server error"

// respondError sends an error response with the appropriate HTTP status code.
// Unmapped errors are attached to the context for ErrorReporter and hidden
// from the caller.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: internalErrorMessage})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidSchedule),
		errors.Is(err, service.ErrInvalidAddress),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrNoPickupCoordinates),
		errors.Is(err, service.ErrInvalidSlip),
		errors.Is(err, service.ErrInvalidReport),
		errors.Is(err, service.ErrEmptyReply),
		errors.Is(err, service.ErrInvalidDriverState):
		return http.StatusBadRequest

	// Missing or invalid identity
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrForbiddenAction),
		errors.Is(err, service.ErrNotBookingOwner),
		errors.Is(err, service.ErrNotAssignedDriver):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrBookingAlreadyTaken),
		errors.Is(err, service.ErrAssignmentInProgress),
		errors.Is(err, service.ErrDriverOffline),
		errors.Is(err, service.ErrDriverBanned),
		errors.Is(err, service.ErrDriverUnverified),
		errors.Is(err, service.ErrDriverBusy),
		errors.Is(err, service.ErrTerminalState),
		errors.Is(err, service.ErrAlreadyInStatus),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrTooEarly),
		errors.Is(err, service.ErrTooLateToAccept),
		errors.Is(err, service.ErrCannotCancelInTrip),
		errors.Is(err, service.ErrCannotCancelAfterPayment),
		errors.Is(err, service.ErrCannotReturnToPool),
		errors.Is(err, service.ErrPaymentNotAwaitingVerify),
		errors.Is(err, service.ErrSlipNotAccepted),
		errors.Is(err, service.ErrReportAlreadyReplied),
		errors.Is(err, service.ErrStaleStatus):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// currentActor returns the request actor, answering 401 when IdentityMiddleware
// did not run.
func currentActor(c *gin.Context) (domain.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
	}
	return a, ok
}

// requireAdmin answers 403 unless the actor is an admin.
func requireAdmin(c *gin.Context) (domain.Actor, bool) {
	a, ok := currentActor(c)
	if !ok {
		return a, false
	}
	if !a.IsAdmin() {
		respondError(c, service.ErrForbiddenAction)
		return a, false
	}
	return a, true
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
