package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medride/internal/domain"
	"medride/internal/repository"
	"medride/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
	driverRepo    repository.DriverRepository
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService, driverRepo repository.DriverRepository) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
		driverRepo:    driverRepo,
	}
}

// AvailabilityRequest is the HTTP request body for going active or inactive.
type AvailabilityRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateLocationRequest is the HTTP request body for updating driver location.
type UpdateLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AdminDriverUpdateRequest is the HTTP request body for an admin driver change.
type AdminDriverUpdateRequest struct {
	Status   *string `json:"status"`
	Verified *string `json:"verified"`
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	LineUserID   string `json:"line_user_id"`
	LicensePlate string `json:"license_plate"`
	VehicleModel string `json:"vehicle_model"`
}

// SetAvailability handles POST /v1/drivers/me/availability
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	driver, err := h.driverService.SetAvailability(c.Request.Context(), who, domain.DriverStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// UpdateLocation handles POST /v1/drivers/me/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	err := h.driverService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		Actor: who,
		Lat:   req.Lat,
		Lng:   req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetAll handles GET /v1/admin/drivers
func (h *DriverHandler) GetAll(c *gin.Context) {
	who, ok := requireAdmin(c)
	if !ok {
		return
	}

	drivers, err := h.driverService.List(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, toDriverResponse(d))
	}

	respondJSON(c, http.StatusOK, response)
}

// AdminUpdate handles PATCH /v1/admin/drivers/:id
func (h *DriverHandler) AdminUpdate(c *gin.Context) {
	who, ok := requireAdmin(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AdminDriverUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	update := service.AdminDriverUpdate{DriverID: id, Actor: who}
	if req.Status != nil {
		status := domain.DriverStatus(*req.Status)
		update.Status = &status
	}
	if req.Verified != nil {
		verified := domain.VerificationStatus(*req.Verified)
		update.Verified = &verified
	}

	driver, err := h.driverService.AdminUpdate(c.Request.Context(), update)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// Register handles POST /v1/admin/drivers
func (h *DriverHandler) Register(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		badRequest(c, "name and phone are required")
		return
	}

	// New drivers start offline and wait for admin approval.
	driver := &domain.Driver{
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		LineUserID:   req.LineUserID,
		LicensePlate: req.LicensePlate,
		VehicleModel: req.VehicleModel,
		Status:       domain.DriverStatusInactive,
		Verified:     domain.VerificationPending,
	}

	if err := h.driverRepo.Create(c.Request.Context(), driver); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}
