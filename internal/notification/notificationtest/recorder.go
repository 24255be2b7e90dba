// Package notificationtest provides a Gateway that records what it is sent.
package notificationtest

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/notification"
)

type Recorder struct {
	mu   sync.Mutex
	sent []notification.Notification
	// Err, when set, is returned by Send and nothing is recorded.
	Err error
}

var _ notification.Gateway = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(_ context.Context, n notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *Recorder) Sent() []notification.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

func (r *Recorder) SentTo(recipientID uuid.UUID, kind notification.Kind) []notification.Notification {
	var out []notification.Notification
	for _, n := range r.Sent() {
		if n.RecipientID == recipientID && n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
	r.Err = nil
}
