package handler

import (
	"log/slog"
	"net/http"

	"companion/internal/domain/models"
	"companion/internal/httputil"
	"companion/internal/service"
)

// UserHandler handles profile HTTP requests
type UserHandler struct {
	userService *service.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// Me returns the authenticated user's profile
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUser(r)
	httputil.RespondJSON(w, http.StatusOK, user)
}

// updateUserRequest distinguishes absent fields from provided ones so a
// partial update only touches what the client sent.
type updateUserRequest struct {
	Email    httputil.OptionalString `json:"email"`
	FullName httputil.OptionalString `json:"full_name"`
	Password httputil.OptionalString `json:"password"`
}

// UpdateMe applies a partial profile update
// PUT /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUser(r)

	var req updateUserRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	patch := &models.UserPatch{}
	if req.Email.Present {
		patch.Email = req.Email.Value
	}
	if req.FullName.Present {
		patch.FullName = req.FullName.Value
	}
	if req.Password.Present {
		patch.Password = req.Password.Value
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user, patch)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, updated)
}
