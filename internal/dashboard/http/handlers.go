// Package dashboardhttp exposes the dashboard report over HTTP.
package dashboardhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/caixaclaro/caixaclaro/internal/dashboard"
	"github.com/caixaclaro/caixaclaro/internal/platform/httpx"
	"github.com/caixaclaro/caixaclaro/internal/shared"
)

// ReportService defines the dashboard data contract used by the handler.
type ReportService interface {
	Report(ctx context.Context, ownerID int64, ref time.Time) (dashboard.Report, error)
}

// Handler coordinates HTTP requests for the dashboard.
type Handler struct {
	logger  *slog.Logger
	service ReportService
	now     func() time.Time
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService) *Handler {
	return &Handler{logger: logger, service: service, now: time.Now}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// MountRoutes attaches dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleReport)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := shared.OwnerFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}

	ref := h.now().UTC()
	if raw := r.URL.Query().Get("ref"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Reference Date", "ref must be formatted YYYY-MM-DD")
			return
		}
		ref = parsed
	}

	report, err := h.service.Report(r.Context(), ownerID, ref)
	if err != nil {
		if errors.Is(err, dashboard.ErrInvalidInput) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
			return
		}
		h.logger.Error("dashboard report", slog.Int64("owner_id", ownerID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, report)
}
