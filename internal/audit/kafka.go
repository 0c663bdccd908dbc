package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultTopic is used when the configuration names no topic.
const DefaultTopic = "certcheck.verdicts"

// KafkaPublisher produces events as JSON records keyed by digest, so every
// verdict for the same content lands on the same partition.
//
// Each Publish waits at most timeout for the broker to acknowledge. An
// unreachable broker costs a verdict that much latency and nothing more.
type KafkaPublisher struct {
	client  *kgo.Client
	timeout time.Duration
}

// NewKafkaPublisher connects a producer to brokers. Brokers are dialed lazily,
// so a down cluster surfaces as Publish errors, not here.
func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka audit requires at least one broker")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("kafka publish timeout must be positive, got %s", timeout)
	}
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordDeliveryTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, timeout: timeout}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rec := &kgo.Record{Key: []byte(e.Digest), Value: value}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("producing event %s: %w", e.VerdictID, err)
	}
	return nil
}

// Close flushes buffered records and closes the client.
func (p *KafkaPublisher) Close() error {
	p.client.Close()
	return nil
}
