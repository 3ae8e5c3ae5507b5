package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medride/internal/service"
)

// AdminHandler handles admin-only booking operations.
type AdminHandler struct {
	bookingService    *service.BookingService
	assignmentService *service.AssignmentService
	matchingService   *service.MatchingService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	bookingService *service.BookingService,
	assignmentService *service.AssignmentService,
	matchingService *service.MatchingService,
) *AdminHandler {
	return &AdminHandler{
		bookingService:    bookingService,
		assignmentService: assignmentService,
		matchingService:   matchingService,
	}
}

// AssignRequest is the HTTP request body for an admin assignment.
type AssignRequest struct {
	DriverID int64 `json:"driver_id" binding:"required"`
}

// Assign handles POST /v1/admin/bookings/:id/assign
func (h *AdminHandler) Assign(c *gin.Context) {
	who, ok := requireAdmin(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	booking, err := h.assignmentService.Assign(c.Request.Context(), service.AssignRequest{
		BookingID: id,
		DriverID:  req.DriverID,
		Actor:     who,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// Delete handles DELETE /v1/admin/bookings/:id
func (h *AdminHandler) Delete(c *gin.Context) {
	who, ok := requireAdmin(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.bookingService.Delete(c.Request.Context(), id, who); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// NearbyDrivers handles GET /v1/admin/bookings/:id/nearby-drivers?radius_km=5
func (h *AdminHandler) NearbyDrivers(c *gin.Context) {
	who, ok := requireAdmin(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var radius float64
	if raw := c.Query("radius_km"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			badRequest(c, "invalid radius_km")
			return
		}
		radius = v
	}

	candidates, err := h.matchingService.NearbyDrivers(c.Request.Context(), service.NearbyRequest{
		BookingID: id,
		Actor:     who,
		RadiusKm:  radius,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(candidates))
	for _, cand := range candidates {
		d := toDriverResponse(cand.Driver)
		d.DistanceKm = cand.DistanceKm
		response = append(response, d)
	}

	respondJSON(c, http.StatusOK, response)
}
