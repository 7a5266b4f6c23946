package handler

import (
	"log/slog"
	"net/http"

	"companion/internal/httputil"
	"companion/internal/service"
)

// FineTuneHandler handles fine-tune lifecycle HTTP requests.
//
// These endpoints are intentionally unauthenticated; see DESIGN.md for the
// documented hardening gap.
type FineTuneHandler struct {
	fineTuneService *service.FineTuneService
	logger          *slog.Logger
}

// NewFineTuneHandler creates a new fine-tune handler
func NewFineTuneHandler(fineTuneService *service.FineTuneService, logger *slog.Logger) *FineTuneHandler {
	return &FineTuneHandler{
		fineTuneService: fineTuneService,
		logger:          logger,
	}
}

// Submit starts a fine-tuning run. The caller is acknowledged as soon as
// preconditions pass; the upload/submit/persist sequence runs detached and
// its outcome is only discoverable via Status.
// POST /api/fine-tune
func (h *FineTuneHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := h.fineTuneService.Submit(r.Context()); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, map[string]string{
		"message": "Fine-tuning started",
	})
}

// Status polls the provider for a job's current state
// GET /api/fine-tune/{id}/status
func (h *FineTuneHandler) Status(w http.ResponseWriter, r *http.Request) {
	fineTuneID := r.PathValue("id")
	if fineTuneID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "fine-tune id is required")
		return
	}

	status, err := h.fineTuneService.Poll(r.Context(), fineTuneID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, status)
}
