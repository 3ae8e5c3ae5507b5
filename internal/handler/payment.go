package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medride/internal/service"
)

const slipFormField = "slip"

// PaymentHandler handles HTTP requests for booking payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// UploadSlip handles POST /v1/bookings/:id/slip (multipart field "slip")
func (h *PaymentHandler) UploadSlip(c *gin.Context) {
	who, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	// Leave headroom for the multipart envelope around the file.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxSlipSize+1<<20)

	header, err := c.FormFile(slipFormField)
	if err != nil {
		respondError(c, service.ErrInvalidSlip)
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, service.ErrInvalidSlip)
		return
	}
	defer file.Close()

	booking, err := h.paymentService.UploadSlip(c.Request.Context(), service.UploadSlipRequest{
		BookingID:   id,
		Actor:       who,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// Verify handles POST /v1/admin/bookings/:id/payment/verify
func (h *PaymentHandler) Verify(c *gin.Context) {
	who, ok := requireAdmin(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.paymentService.Verify(c.Request.Context(), service.ReviewRequest{
		BookingID: id,
		Actor:     who,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// Reject handles POST /v1/admin/bookings/:id/payment/reject
func (h *PaymentHandler) Reject(c *gin.Context) {
	who, ok := requireAdmin(c)
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

	booking, err := h.paymentService.Reject(c.Request.Context(), service.ReviewRequest{
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
