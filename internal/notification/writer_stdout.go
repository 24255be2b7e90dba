package notification

import (
	"context"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"go.uber.org/zap"
)

// StdoutWriter logs every event. Used in development.
type StdoutWriter struct{}

func (s *StdoutWriter) Write(_ context.Context, topic, key string, e cloudevents.Event) error {
	zap.S().Named("stdout_writer").Infow("notification written", "topic", topic, "key", key, "type", e.Type(), "data", string(e.Data()))
	return nil
}

func (s *StdoutWriter) Close(_ context.Context) error {
	return nil
}
