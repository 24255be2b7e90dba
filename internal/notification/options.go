package notification

import "golang.org/x/time/rate"

type ProducerOptions func(p *Producer)

func WithOutputTopic(topic string) ProducerOptions {
	return func(p *Producer) {
		p.topic = topic
	}
}

func WithSource(source string) ProducerOptions {
	return func(p *Producer) {
		p.source = source
	}
}

// WithRateLimit caps the writes per second handed to the writer. A zero or
// negative limit leaves the producer unthrottled.
func WithRateLimit(perSecond float64, burst int) ProducerOptions {
	return func(p *Producer) {
		if perSecond <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}
