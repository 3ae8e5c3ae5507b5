package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medride/internal/domain"
	"medride/internal/repository"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	userRepo repository.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userRepo repository.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// RegisterRequest is the HTTP request body for user registration.
type RegisterRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	LineUserID string `json:"line_user_id"`
}

// UserResponse is the HTTP response for user data.
type UserResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	LineLinked bool   `json:"line_linked"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Phone:      u.Phone,
		LineLinked: u.LineUserID != "",
	}
}

// Register handles POST /v1/admin/users
func (h *UserHandler) Register(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		badRequest(c, "name and phone are required")
		return
	}

	user := &domain.User{
		Name:       strings.TrimSpace(req.Name),
		Phone:      strings.TrimSpace(req.Phone),
		LineUserID: req.LineUserID,
	}

	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toUserResponse(user))
}

// GetAll handles GET /v1/admin/users
func (h *UserHandler) GetAll(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	users, err := h.userRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, toUserResponse(u))
	}

	respondJSON(c, http.StatusOK, response)
}
