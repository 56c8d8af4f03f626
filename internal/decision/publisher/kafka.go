// Package publisher emits flag created events to Kafka for downstream
// consumers such as the dashboard. Only persisted flags are ever published.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"vigil/internal/concern"
	"vigil/internal/decision/models"
)

type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

func NewKafkaPublisher(client *kgo.Client, topic string) *KafkaPublisher {
	return &KafkaPublisher{client: client, topic: topic}
}

// PublishFlagCreated produces synchronously. Records are keyed by family so
// one family's flags stay ordered within a partition.
func (p *KafkaPublisher) PublishFlagCreated(ctx context.Context, flag concern.Flag) error {
	value, err := json.Marshal(EventFromFlag(flag))
	if err != nil {
		return fmt.Errorf("encode flag event: %w", err)
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(flag.FamilyID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte("flag.created")},
		},
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce flag event: %w", err)
	}
	return nil
}

func EventFromFlag(flag concern.Flag) models.FlagCreatedEvent {
	return models.FlagCreatedEvent{
		FlagID:     flag.ID.String(),
		FamilyID:   flag.FamilyID.String(),
		SubjectID:  flag.SubjectID.String(),
		Category:   flag.Category.String(),
		Severity:   flag.Severity.String(),
		Confidence: flag.Confidence,
		CreatedAt:  flag.CreatedAt.UTC().Format(time.RFC3339),
	}
}
