package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vigil/internal/calibration/models"
	"vigil/internal/concern"
	"vigil/pkg/domain"
	"vigil/pkg/platform/httputil"
	"vigil/pkg/requestcontext"
)

// Service records guardian corrections.
type Service interface {
	RecordCorrection(ctx context.Context, familyID domain.FamilyID, category concern.Category, kind models.CorrectionKind) (*models.FamilyBiasProfile, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts calibration endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/corrections", h.HandleCorrection)
}

// HandleCorrection handles POST /v1/corrections.
func (h *Handler) HandleCorrection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CorrectionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	profile, err := h.service.RecordCorrection(ctx, req.familyID, req.category, req.kind)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to record correction",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CorrectionResponse{
		CorrectionCount: profile.CorrectionCount,
		Active:          profile.Active(),
	})
}

// CorrectionRequest is the body for POST /v1/corrections.
type CorrectionRequest struct {
	FamilyID string `json:"family_id"`
	Category string `json:"category"`
	Kind     string `json:"kind"`

	familyID domain.FamilyID
	category concern.Category
	kind     models.CorrectionKind
}

func (r *CorrectionRequest) Normalize() {}

func (r *CorrectionRequest) Validate() error {
	var err error
	if r.familyID, err = domain.ParseFamilyID(r.FamilyID); err != nil {
		return err
	}
	if r.category, err = concern.ParseCategory(r.Category); err != nil {
		return err
	}
	r.kind = models.CorrectionKind(r.Kind)
	if _, err := r.kind.Delta(); err != nil {
		return err
	}
	return nil
}

// CorrectionResponse deliberately omits the adjustment value.
type CorrectionResponse struct {
	CorrectionCount int  `json:"correction_count"`
	Active          bool `json:"active"`
}
