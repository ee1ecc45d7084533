package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"booking-service/internal/models"
)

// KafkaNotifier publishes notifications to a topic keyed by tenant, so all
// events of one tenant land on the same partition.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers, topic string) (*KafkaNotifier, error) {
	const op = "notify.NewKafkaNotifier"

	addrs := SplitBrokers(brokers)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%s: no kafka brokers configured", op)
	}
	if topic == "" {
		return nil, fmt.Errorf("%s: empty topic", op)
	}

	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(addrs...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}, nil
}

func (k *KafkaNotifier) Notify(ctx context.Context, n models.Notification) error {
	const op = "notify.KafkaNotifier.Notify"

	msg := kafka.Message{
		Key:   []byte(n.TenantID),
		Value: n.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(n.ID)},
			{Key: "event_type", Value: []byte(n.Type)},
		},
		Time: n.CreatedAt,
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
