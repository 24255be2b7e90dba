package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/servicemarket/missions/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultTopic  string = "missions.notifications"
	defaultSource string = "servicemarket.missions"
)

var ErrProducerClosed = errors.New("notification producer is closed")

// Writer is the interface to be implemented by the underlying transport.
type Writer interface {
	Write(ctx context.Context, topic, key string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

// Producer is the Gateway used in production. Send only validates and queues
// the notification; a background loop wraps it in a cloud event and hands it
// to the writer, logging failures.
type Producer struct {
	buffer  *buffer
	wakeCh  chan struct{}
	doneCh  chan struct{}
	stopped chan struct{}
	writer  Writer
	topic   string
	source  string
	limiter *rate.Limiter

	closeOnce sync.Once
	closed    bool
	mu        sync.RWMutex
}

var _ Gateway = (*Producer)(nil)

func NewProducer(w Writer, opts ...ProducerOptions) *Producer {
	p := &Producer{
		buffer:  newBuffer(),
		wakeCh:  make(chan struct{}, 1),
		doneCh:  make(chan struct{}),
		stopped: make(chan struct{}),
		writer:  w,
		topic:   defaultTopic,
		source:  defaultSource,
	}

	for _, o := range opts {
		o(p)
	}

	go p.run()
	return p
}

func (p *Producer) Send(ctx context.Context, n Notification) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}

	if err := n.Validate(); err != nil {
		return err
	}
	data, err := n.Marshal()
	if err != nil {
		return err
	}

	p.buffer.PushBack(&message{Kind: n.Kind, Key: n.RecipientID.String(), Data: data})
	metrics.IncreaseNotificationsMetric(string(n.Kind), "queued")

	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

// Close stops accepting notifications, flushes what is queued and closes the
// writer.
func (p *Producer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		g, ctx := errgroup.WithContext(closeCtx)
		g.Go(func() error {
			close(p.doneCh)
			select {
			case <-p.stopped:
			case <-ctx.Done():
				return ctx.Err()
			}
			return p.writer.Close(ctx)
		})
		if err = g.Wait(); err != nil {
			zap.S().Named("notification_producer").Errorf("notification producer closed with error: %s", err)
			return
		}
		zap.S().Named("notification_producer").Info("notification producer closed")
	})
	return err
}

func (p *Producer) run() {
	defer close(p.stopped)
	for {
		for msg := p.buffer.Pop(); msg != nil; msg = p.buffer.Pop() {
			p.write(msg)
		}

		select {
		case <-p.wakeCh:
		case <-p.doneCh:
			for msg := p.buffer.Pop(); msg != nil; msg = p.buffer.Pop() {
				p.write(msg)
			}
			return
		}
	}
}

func (p *Producer) write(msg *message) {
	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetSource(p.source)
	e.SetType(string(msg.Kind))
	e.SetTime(time.Now().UTC())
	_ = e.SetData(*cloudevents.StringOfApplicationJSON(), msg.Data)

	if p.limiter != nil {
		_ = p.limiter.Wait(context.Background())
	}

	if err := p.writer.Write(context.Background(), p.topic, msg.Key, e); err != nil {
		metrics.IncreaseNotificationsMetric(string(msg.Kind), "failed")
		zap.S().Named("notification_producer").Errorw("failed to send notification", "error", err, "event_id", e.ID(), "kind", msg.Kind)
		return
	}
	metrics.IncreaseNotificationsMetric(string(msg.Kind), "sent")
}
