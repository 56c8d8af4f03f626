package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vigil/internal/concern"
	"vigil/internal/decision/models"
	"vigil/pkg/platform/httputil"
	"vigil/pkg/requestcontext"
)

// Service defines the interface for decision operations.
type Service interface {
	Decide(ctx context.Context, c concern.Candidate) (models.Result, error)
}

// Handler wires the intake endpoint to the decision service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a decision handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts decision endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/candidates", h.HandleCandidate)
}

// HandleCandidate handles POST /v1/candidates.
//
// The response only says whether a flag exists. Suppressed and discarded
// candidates get the same body, and the handler logs neither.
func (h *Handler) HandleCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CandidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Decide(ctx, req.candidate)
	if err != nil {
		h.logger.ErrorContext(ctx, "candidate evaluation failed",
			"request_id", requestID,
			"family_id", req.candidate.FamilyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := CandidateResponse{}
	if result.Outcome == models.OutcomeCreated {
		resp.FlagCreated = true
		resp.FlagID = result.Flag.ID.String()
		h.logger.InfoContext(ctx, "candidate accepted",
			"request_id", requestID,
			"flag_id", resp.FlagID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
