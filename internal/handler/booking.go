package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"medride/internal/domain"
	"medride/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService    *service.BookingService
	assignmentService *service.AssignmentService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService, assignmentService *service.AssignmentService) *BookingHandler {
	return &BookingHandler{
		bookingService:    bookingService,
		assignmentService: assignmentService,
	}
}

// CreateBookingRequest is the HTTP request body for booking a ride.
type CreateBookingRequest struct {
	ScheduledStart time.Time  `json:"scheduled_start" binding:"required"`
	ScheduledEnd   *time.Time `json:"scheduled_end"`
	PickupAddress  string     `json:"pickup_address" binding:"required"`
	PickupLat      float64    `json:"pickup_lat"`
	PickupLng      float64    `json:"pickup_lng"`
	DropoffAddress string     `json:"dropoff_address" binding:"required"`
	DropoffLat     float64    `json:"dropoff_lat"`
	DropoffLng     float64    `json:"dropoff_lng"`
	Note           string     `json:"note"`
}

// ReasonRequest is the HTTP request body for cancel and return.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// StatusUpdateRequest is the HTTP request body for a status change.
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// Create handles POST /v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	detail, err := h.bookingService.Create(c.Request.Context(), service.CreateBookingRequest{
		Actor:          who,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		PickupAddress:  req.PickupAddress,
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		DropoffAddress: req.DropoffAddress,
		DropoffLat:     req.DropoffLat,
		DropoffLng:     req.DropoffLng,
		Note:           req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingDetailResponse(detail))
}

// List handles GET /v1/bookings?status=a,b
func (h *BookingHandler) List(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}

	var statuses []domain.BookingStatus
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := domain.ParseBookingStatus(strings.TrimSpace(part))
			if err != nil {
				respondError(c, service.ErrInvalidStatus)
				return
			}
			statuses = append(statuses, status)
		}
	}

	bookings, err := h.bookingService.List(c.Request.Context(), who, statuses)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponses(bookings))
}

// Pool handles GET /v1/bookings/pool
func (h *BookingHandler) Pool(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListPool(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponses(bookings))
}

// Get handles GET /v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.bookingService.Get(c.Request.Context(), id, who)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingDetailResponse(detail))
}

// Timeline handles GET /v1/bookings/:id/timeline
func (h *BookingHandler) Timeline(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	timeline, err := h.bookingService.Timeline(c.Request.Context(), id, who)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, timeline)
}

// Cancel handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ReasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	booking, err := h.bookingService.Cancel(c.Request.Context(), service.CancelRequest{
		BookingID: id,
		Actor:     who,
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// Accept handles POST /v1/bookings/:id/accept
func (h *BookingHandler) Accept(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.assignmentService.Accept(c.Request.Context(), service.AcceptRequest{
		BookingID: id,
		Actor:     who,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// Return handles POST /v1/bookings/:id/return
func (h *BookingHandler) Return(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ReasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	booking, err := h.assignmentService.ReturnToPool(c.Request.Context(), service.ReturnRequest{
		BookingID: id,
		Actor:     who,
		Reason:    strings.TrimSpace(req.Reason),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// UpdateStatus handles POST /v1/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	status, err := domain.ParseBookingStatus(req.Status)
	if err != nil {
		respondError(c, service.ErrInvalidStatus)
		return
	}

	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), service.StatusRequest{
		BookingID: id,
		Requested: status,
		Actor:     who,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// StatusResponse describes one booking status.
type StatusResponse struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	ThaiLabel string `json:"thai_label"`
	Position  int    `json:"position"`
	Terminal  bool   `json:"terminal"`
}

// Statuses handles GET /v1/statuses
func (h *BookingHandler) Statuses(c *gin.Context) {
	statuses := domain.AllStatuses()
	out := make([]StatusResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, StatusResponse{
			Value:     string(s),
			Label:     s.Label(),
			ThaiLabel: s.ThaiLabel(),
			Position:  s.Position(),
			Terminal:  s.IsTerminal(),
		})
	}
	respondJSON(c, http.StatusOK, out)
}
