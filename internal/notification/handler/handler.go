// Package handler exposes operator triggers for the digest and deferred
// delivery jobs. Responses carry counts only.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vigil/internal/notification/models"
	dErrors "vigil/pkg/domain-errors"
	"vigil/pkg/platform/httputil"
	"vigil/pkg/requestcontext"
)

type Flusher interface {
	FlushHourly(ctx context.Context) (models.FlushReport, error)
	FlushDaily(ctx context.Context) (models.FlushReport, error)
}

type Releaser interface {
	ReleaseDue(ctx context.Context) (int, error)
}

type Handler struct {
	flusher  Flusher
	releaser Releaser
	logger   *slog.Logger
}

func New(flusher Flusher, releaser Releaser, logger *slog.Logger) *Handler {
	return &Handler{flusher: flusher, releaser: releaser, logger: logger}
}

// Register mounts admin endpoints. Callers wrap r with admin auth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/admin/digests/{type}/flush", h.HandleFlush)
	r.Post("/v1/admin/deferred/release", h.HandleRelease)
}

type FlushResponse struct {
	DigestType string `json:"digest_type"`
	Groups     int    `json:"groups"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	Cleared    int    `json:"cleared"`
}

type ReleaseResponse struct {
	Released int `json:"released"`
}

// HandleFlush handles POST /v1/admin/digests/{hourly|daily}/flush.
func (h *Handler) HandleFlush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	digestType := models.DigestType(chi.URLParam(r, "type"))

	var (
		report models.FlushReport
		err    error
	)
	switch digestType {
	case models.DigestHourly:
		report, err = h.flusher.FlushHourly(ctx)
	case models.DigestDaily:
		report, err = h.flusher.FlushDaily(ctx)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "digest type must be hourly or daily"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "manual digest flush failed",
			"request_id", requestID,
			"digest_type", digestType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "manual digest flush",
		"request_id", requestID,
		"service", requestcontext.Service(ctx),
		"digest_type", digestType,
		"groups", report.Groups,
	)
	httputil.WriteJSON(w, http.StatusOK, FlushResponse{
		DigestType: string(digestType),
		Groups:     report.Groups,
		Sent:       report.Sent,
		Failed:     report.Failed,
		Cleared:    report.Cleared,
	})
}

// HandleRelease handles POST /v1/admin/deferred/release.
func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.releaser.ReleaseDue(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "manual deferred release failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReleaseResponse{Released: n})
}
