// Package service turns concern candidates into flags.
//
// Evaluation order: crisis guard, bias adjustment, safety floor, family
// threshold. A suppressed candidate leaves the service before any span, log
// line or decision metric is produced.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	calibration "vigil/internal/calibration/models"
	"vigil/internal/concern"
	"vigil/internal/decision/metrics"
	"vigil/internal/decision/models"
	"vigil/pkg/domain"
	"vigil/pkg/requestcontext"
)

// Service is the flag decision engine.
type Service struct {
	guard      Guard
	adjuster   Adjuster
	thresholds ThresholdSource
	flags      FlagStore

	router    Router
	publisher Publisher
	volume    VolumeRecorder
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer

	// side effects of created flags run after Decide returns
	inflight sync.WaitGroup
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithRouter(r Router) Option {
	return func(s *Service) {
		s.router = r
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithVolumeRecorder(v VolumeRecorder) Option {
	return func(s *Service) {
		s.volume = v
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(guard Guard, adjuster Adjuster, thresholds ThresholdSource, flags FlagStore, opts ...Option) *Service {
	s := &Service{
		guard:      guard,
		adjuster:   adjuster,
		thresholds: thresholds,
		flags:      flags,
		logger:     slog.Default(),
		tracer:     otel.Tracer("vigil/decision"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decide evaluates one candidate. A non-nil error always comes with a
// Discarded result: evaluation fails closed.
func (s *Service) Decide(ctx context.Context, c concern.Candidate) (models.Result, error) {
	if s.guard.Check(c.ContextDomain, c.ContextText) {
		return models.Suppressed(), nil
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "decision.Decide")
	defer span.End()

	res, err := s.evaluate(ctx, c)
	span.SetAttributes(attribute.String("decision.outcome", res.Outcome.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
	}
	s.metrics.IncrementOutcome(res.Outcome.String())
	s.metrics.ObserveEvaluateLatency(time.Since(start))
	return res, err
}

func (s *Service) evaluate(ctx context.Context, c concern.Candidate) (models.Result, error) {
	adjusted, err := s.adjuster.Adjust(ctx, c.RawConfidence, c.FamilyID, c.SubjectID, c.AppIdentifier, c.Category)
	if err != nil {
		// Calibration is unavailable. Only the floor, which needs no lookup,
		// may still create a flag; everything else is discarded.
		if c.RawConfidence >= calibration.AlwaysFlagThreshold {
			s.logger.WarnContext(ctx, "bias adjustment unavailable, applying safety floor to raw confidence",
				"family_id", c.FamilyID,
				"error", err,
			)
			return s.create(ctx, c, c.RawConfidence)
		}
		return models.Discarded(), fmt.Errorf("adjust confidence: %w", err)
	}

	if adjusted >= calibration.AlwaysFlagThreshold {
		return s.create(ctx, c, adjusted)
	}

	threshold, err := s.thresholds.EffectiveThreshold(ctx, c.FamilyID, c.Category)
	if err != nil {
		return models.Discarded(), fmt.Errorf("resolve threshold: %w", err)
	}
	if adjusted >= threshold {
		return s.create(ctx, c, adjusted)
	}

	s.logDiscarded(ctx, c, adjusted, threshold)
	return models.Discarded(), nil
}

// logDiscarded records tuning data for ordinary categories. Safety-adjacent
// categories leave no log line; only the outcome counter moves.
func (s *Service) logDiscarded(ctx context.Context, c concern.Candidate, adjusted, threshold int) {
	if c.Category.SafetyAdjacent() {
		return
	}
	s.logger.DebugContext(ctx, "candidate discarded below threshold",
		"category", c.Category,
		"confidence", adjusted,
		"threshold", threshold,
	)
}

func (s *Service) create(ctx context.Context, c concern.Candidate, confidence int) (models.Result, error) {
	flag := &concern.Flag{
		ID:         domain.NewFlagID(),
		FamilyID:   c.FamilyID,
		SubjectID:  c.SubjectID,
		Category:   c.Category,
		Severity:   c.EffectiveSeverity(),
		Confidence: confidence,
		EventID:    c.EventID,
		CreatedAt:  requestcontext.Now(ctx).UTC(),
	}
	if err := s.flags.Save(ctx, flag); err != nil {
		return models.Discarded(), fmt.Errorf("persist flag: %w", err)
	}

	attrs := []any{
		"flag_id", flag.ID,
		"family_id", flag.FamilyID,
		"subject_id", flag.SubjectID,
		"severity", flag.Severity,
	}
	if s.volume != nil {
		attrs = append(attrs, "recent_family_category_flags", s.volume.Record(flag.FamilyID, flag.Category, flag.CreatedAt))
	}
	s.logger.InfoContext(ctx, "flag created", attrs...)
	s.metrics.IncrementCreated(flag.Severity.String())

	s.dispatch(ctx, *flag)
	return models.Created(flag), nil
}

// dispatch runs routing and publishing in the background. Their failures
// never reach the caller; the flag is already persisted.
func (s *Service) dispatch(ctx context.Context, flag concern.Flag) {
	if s.router == nil && s.publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if s.router != nil {
			if err := s.router.RouteFlag(ctx, flag); err != nil {
				s.logger.WarnContext(ctx, "flag routing failed",
					"flag_id", flag.ID,
					"error", err,
				)
			}
		}
		if s.publisher != nil {
			if err := s.publisher.PublishFlagCreated(ctx, flag); err != nil {
				s.metrics.IncrementPublishFailure()
				s.logger.WarnContext(ctx, "flag event publish failed",
					"flag_id", flag.ID,
					"error", err,
				)
			}
		}
	}()
}

// Wait blocks until background routing and publishing for already created
// flags has finished. Used on shutdown and in tests.
func (s *Service) Wait() {
	s.inflight.Wait()
}
