package notification

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/pkg/errors"
	"github.com/servicemarket/missions/internal/config"
	"go.uber.org/zap"
)

// KafkaWriter publishes events in structured cloudevents mode, keyed by the
// recipient so one user's notifications stay ordered.
type KafkaWriter struct {
	producer sarama.SyncProducer
}

func NewKafkaWriter(cfg config.KafkaConfig) (*KafkaWriter, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("no kafka broker configured")
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = cfg.ClientID
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 5
	if cfg.Version != "" {
		version, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return nil, errors.Wrap(err, "invalid kafka version")
		}
		saramaCfg.Version = version
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to kafka brokers %v", cfg.Brokers)
	}
	zap.S().Named("kafka_writer").Infow("connected to kafka", "brokers", cfg.Brokers)

	return &KafkaWriter{producer: producer}, nil
}

func (k *KafkaWriter) Write(_ context.Context, topic, key string, e cloudevents.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "failed to encode cloud event")
	}

	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("content-type"), Value: []byte(cloudevents.ApplicationCloudEventsJSON)},
		},
	})
	return err
}

func (k *KafkaWriter) Close(_ context.Context) error {
	return k.producer.Close()
}
