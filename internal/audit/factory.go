package audit

import (
	"fmt"
	"log/slog"

	"certcheck/internal/config"
)

// NewPublisherFromConfig creates the Publisher selected by cfg.Type.
func NewPublisherFromConfig(cfg config.AuditConfig, logger *slog.Logger) (Publisher, error) {
	switch cfg.Type {
	case "", "none":
		return NopPublisher{}, nil
	case "log":
		return NewLogPublisher(logger), nil
	case "kafka":
		p, err := NewKafkaPublisher(cfg.Brokers, cfg.Topic, cfg.PublishTimeout())
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown audit type: %q", cfg.Type)
	}
}
