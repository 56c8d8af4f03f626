package service

import (
	"context"
	"errors"
	"sync"

	"vigil/internal/concern"
	"vigil/internal/notification/models"
	"vigil/pkg/domain"
)

type sentMessage struct {
	recipient domain.GuardianID
	payload   models.Payload
}

// recordingSender captures sends and fails for recipients in failFor.
type recordingSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[domain.GuardianID]bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{failFor: make(map[domain.GuardianID]bool)}
}

func (r *recordingSender) Send(_ context.Context, recipient domain.GuardianID, payload models.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[recipient] {
		return errors.New("gateway unavailable")
	}
	r.sent = append(r.sent, sentMessage{recipient: recipient, payload: payload})
	return nil
}

func (r *recordingSender) fail(g domain.GuardianID, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failFor[g] = on
}

func (r *recordingSender) to(g domain.GuardianID) []models.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payload
	for _, m := range r.sent {
		if m.recipient == g {
			out = append(out, m.payload)
		}
	}
	return out
}

func (r *recordingSender) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func newFlag(severity concern.Severity) concern.Flag {
	return concern.Flag{
		ID:         domain.NewFlagID(),
		FamilyID:   "fam-1",
		SubjectID:  "child-1",
		Category:   concern.CategoryBullying,
		Severity:   severity,
		Confidence: 88,
	}
}
