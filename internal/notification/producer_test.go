package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/servicemarket/missions/internal/store/model"
)

var _ = Describe("producer", func() {
	var mission model.Mission

	BeforeEach(func() {
		mission = model.Mission{
			ID:       uuid.New(),
			ClientID: uuid.New(),
			Offering: model.Offering{ProviderID: uuid.New()},
		}
	})

	It("writes queued notifications as cloud events", func() {
		w := newTestWriter()
		p := NewProducer(w, WithOutputTopic("missions.test"))

		err := p.Send(context.TODO(), NewReviewReminder(mission, model.SideClient, 1))
		Expect(err).To(BeNil())
		err = p.Send(context.TODO(), NewContactRelease(mission, model.SideProvider, model.User{FirstName: "Chloe", Email: "c@example.com"}))
		Expect(err).To(BeNil())

		Eventually(w.Count).WithTimeout(time.Second).Should(Equal(2))

		events := w.Events()
		Expect(events[0].Type()).To(Equal(string(KindReviewReminder)))
		Expect(w.Keys()[0]).To(Equal(mission.ClientID.String()))
		Expect(w.Topics()[1]).To(Equal("missions.test"))

		var n Notification
		Expect(json.Unmarshal(events[1].Data(), &n)).To(Succeed())
		Expect(n.RecipientID).To(Equal(mission.ProviderID()))
		Expect(n.Contact.Email).To(Equal("c@example.com"))

		Expect(p.Close()).To(Succeed())
	})

	It("rejects invalid notifications", func() {
		p := NewProducer(newTestWriter())
		defer p.Close()

		err := p.Send(context.TODO(), Notification{Kind: KindReviewReminder, MissionID: mission.ID, RecipientID: mission.ClientID})
		Expect(err).ToNot(BeNil())
	})

	It("keeps running when the writer fails", func() {
		w := newTestWriter()
		w.err = errors.New("broker down")
		p := NewProducer(w)

		Expect(p.Send(context.TODO(), NewReviewReminder(mission, model.SideClient, 1))).To(Succeed())
		Eventually(w.Attempts).WithTimeout(time.Second).Should(Equal(1))

		Expect(p.Close()).To(Succeed())
	})

	It("throttles writes when rate limited", func() {
		w := newTestWriter()
		p := NewProducer(w, WithRateLimit(20, 1))

		start := time.Now()
		for i := 0; i < 3; i++ {
			Expect(p.Send(context.TODO(), NewReviewReminder(mission, model.SideClient, i+1))).To(Succeed())
		}
		Eventually(w.Count).WithTimeout(2 * time.Second).Should(Equal(3))
		// one token up front, then one every 50ms
		Expect(time.Since(start)).To(BeNumerically(">=", 90*time.Millisecond))

		Expect(p.Close()).To(Succeed())
	})

	It("refuses notifications once closed", func() {
		p := NewProducer(newTestWriter())
		Expect(p.Close()).To(Succeed())

		err := p.Send(context.TODO(), NewReviewReminder(mission, model.SideClient, 1))
		Expect(err).To(MatchError(ErrProducerClosed))
	})
})

type testwriter struct {
	mu       sync.Mutex
	events   []cloudevents.Event
	keys     []string
	topics   []string
	attempts int
	err      error
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(_ context.Context, topic, key string, e cloudevents.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts++
	if t.err != nil {
		return t.err
	}
	t.events = append(t.events, e)
	t.keys = append(t.keys, key)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}

func (t *testwriter) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

func (t *testwriter) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

func (t *testwriter) Events() []cloudevents.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]cloudevents.Event(nil), t.events...)
}

func (t *testwriter) Keys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.keys...)
}

func (t *testwriter) Topics() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.topics...)
}
