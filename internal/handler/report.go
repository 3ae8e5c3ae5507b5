package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medride/internal/domain"
	"medride/internal/service"
)

// ReportHandler handles HTTP requests for booking reports.
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// CreateReportRequest is the HTTP request body for filing a report.
type CreateReportRequest struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// ReplyRequest is the HTTP request body for an admin reply.
type ReplyRequest struct {
	Reply string `json:"reply"`
}

// Create handles POST /v1/bookings/:id/reports
func (h *ReportHandler) Create(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	report, err := h.reportService.Create(c.Request.Context(), service.CreateReportRequest{
		BookingID: id,
		Actor:     who,
		Title:     req.Title,
		Detail:    req.Detail,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toReportResponse(report))
}

// List handles GET /v1/admin/reports?open=true
func (h *ReportHandler) List(c *gin.Context) {
	who, ok := requireAdmin(c)
	if !ok {
		return
	}

	reports, err := h.reportService.List(c.Request.Context(), who, c.Query("open") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReportResponses(reports))
}

// Reply handles POST /v1/admin/reports/:id/reply
func (h *ReportHandler) Reply(c *gin.Context) {
	who, ok := requireAdmin(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	report, err := h.reportService.Reply(c.Request.Context(), service.ReplyRequest{
		ReportID: id,
		Actor:    who,
		Reply:    req.Reply,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReportResponse(report))
}

func toReportResponses(reports []*domain.Report) []ReportResponse {
	out := make([]ReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, toReportResponse(r))
	}
	return out
}
