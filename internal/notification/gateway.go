package notification

import (
	"fmt"

	"github.com/servicemarket/missions/internal/config"
)

// NewGateway builds the producer with the writer selected by configuration.
func NewGateway(cfg config.NotificationConfig) (*Producer, error) {
	var w Writer
	switch cfg.Writer {
	case "", "stdout":
		w = &StdoutWriter{}
	case "kafka":
		kw, err := NewKafkaWriter(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		w = kw
	default:
		return nil, fmt.Errorf("unknown notification writer %q", cfg.Writer)
	}
	opts := []ProducerOptions{WithRateLimit(cfg.RateLimit, cfg.RateBurst)}
	if cfg.Source != "" {
		opts = append(opts, WithSource(cfg.Source))
	}
	if cfg.Kafka.Topic != "" {
		opts = append(opts, WithOutputTopic(cfg.Kafka.Topic))
	}
	return NewProducer(w, opts...), nil
}
