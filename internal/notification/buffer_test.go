package notification

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("buffer", func() {
	It("keeps insertion order", func() {
		b := newBuffer()

		b.PushBack(&message{Kind: KindContactRelease, Data: []byte("msg1")})
		Expect(b.Size()).To(Equal(1))
		Expect(b.head).To(BeIdenticalTo(b.tail))

		b.PushBack(&message{Kind: KindContactRelease, Data: []byte("msg2")})
		b.PushBack(&message{Kind: KindReviewReminder, Data: []byte("msg3")})
		Expect(b.Size()).To(Equal(3))
		Expect(b.head.Data).To(Equal([]byte("msg1")))
		Expect(b.tail.Data).To(Equal([]byte("msg3")))
	})

	It("pops until empty", func() {
		b := newBuffer()
		b.PushBack(&message{Kind: KindContactRelease, Data: []byte("msg1")})
		b.PushBack(&message{Kind: KindContactRelease, Data: []byte("msg2")})

		m := b.Pop()
		Expect(m.Data).To(Equal([]byte("msg1")))
		Expect(b.Size()).To(Equal(1))

		m = b.Pop()
		Expect(m.Data).To(Equal([]byte("msg2")))
		Expect(b.Size()).To(Equal(0))
		Expect(b.head).To(BeNil())
		Expect(b.tail).To(BeNil())

		Expect(b.Pop()).To(BeNil())
	})
})
