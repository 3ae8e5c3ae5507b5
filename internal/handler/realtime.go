package handler

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"medride/internal/service"
)

const tokenCookie = "token"

// RealtimeHandler signs private channel subscriptions.
type RealtimeHandler struct {
	authorizer *service.RealtimeAuthorizer
}

// NewRealtimeHandler creates a new RealtimeHandler.
func NewRealtimeHandler(authorizer *service.RealtimeAuthorizer) *RealtimeHandler {
	return &RealtimeHandler{authorizer: authorizer}
}

// Auth handles POST /realtime/auth (form fields socket_id, channel_name).
// The identity token comes from a Bearer header or the token cookie.
func (h *RealtimeHandler) Auth(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 4<<10))
	if err != nil {
		badRequest(c, "invalid request body")
		return
	}
	form, err := url.ParseQuery(string(body))
	if err != nil || form.Get("socket_id") == "" || form.Get("channel_name") == "" {
		badRequest(c, "socket_id and channel_name are required")
		return
	}

	signed, err := h.authorizer.Authorize(bearerToken(c), form.Get("channel_name"), body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", signed)
}

func bearerToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if cookie, err := c.Cookie(tokenCookie); err == nil {
		return cookie
	}
	return ""
}
