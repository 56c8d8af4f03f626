// Package handler exposes operator endpoints for the crisis allowlist. The
// status body carries only version, tier and size; entries are never listed.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vigil/internal/crisis/allowlist"
	"vigil/internal/crisis/models"
	dErrors "vigil/pkg/domain-errors"
	"vigil/pkg/platform/httputil"
	"vigil/pkg/requestcontext"
)

// Cache is the allowlist lifecycle the handler drives.
type Cache interface {
	Refresh(ctx context.Context, force bool) (allowlist.RefreshResult, error)
	Current() *allowlist.Snapshot
}

type Handler struct {
	cache  Cache
	logger *slog.Logger
}

func New(cache Cache, logger *slog.Logger) *Handler {
	return &Handler{cache: cache, logger: logger}
}

// Register mounts admin endpoints. Callers wrap r with admin auth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/admin/allowlist/refresh", h.HandleRefresh)
	r.Get("/v1/admin/allowlist/status", h.HandleStatus)
}

type RefreshResponse struct {
	Updated bool          `json:"updated"`
	Status  models.Status `json:"status"`
	Error   string        `json:"error,omitempty"`
}

// HandleRefresh handles POST /v1/admin/allowlist/refresh[?emergency=true].
// A failed remote is reported but is not an HTTP error: the previous dataset
// stays active.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	force := false
	if raw := r.URL.Query().Get("emergency"); raw != "" {
		var err error
		if force, err = strconv.ParseBool(raw); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "emergency must be a boolean"))
			return
		}
	}

	res, err := h.cache.Refresh(ctx, force)
	resp := RefreshResponse{Updated: res.Updated, Status: res.Status}
	if err != nil {
		h.logger.WarnContext(ctx, "manual allowlist refresh failed",
			"request_id", requestID,
			"service", requestcontext.Service(ctx),
			"error", err,
		)
		resp.Error = "remote unavailable; previous dataset kept"
	} else {
		h.logger.InfoContext(ctx, "manual allowlist refresh",
			"request_id", requestID,
			"service", requestcontext.Service(ctx),
			"forced", force,
			"updated", res.Updated,
		)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleStatus handles GET /v1/admin/allowlist/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.cache.Current().Status())
}
