package sender

import (
	"context"
	"log/slog"

	"vigil/internal/notification/models"
	"vigil/pkg/domain"
)

// LogSender stands in for a push gateway in development.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, recipient domain.GuardianID, payload models.Payload) error {
	s.logger.InfoContext(ctx, "push notification (no gateway configured)",
		"guardian_id", recipient,
		"title", payload.Title,
		"deep_link", payload.DeepLink,
	)
	return nil
}
