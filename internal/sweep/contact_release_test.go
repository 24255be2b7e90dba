package sweep_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/servicemarket/missions/internal/notification"
	"github.com/servicemarket/missions/internal/notification/notificationtest"
	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/internal/store/model"
	"github.com/servicemarket/missions/internal/store/storetest"
	"github.com/servicemarket/missions/internal/sweep"
)

var _ = Describe("contact release", Ordered, func() {
	var (
		s        store.Store
		gormdb   *gorm.DB
		recorder *notificationtest.Recorder
		fx       storetest.Fixtures
		now      = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	)

	BeforeAll(func() {
		db, err := storetest.NewDB()
		Expect(err).To(BeNil())
		s = store.NewStore(db)
		gormdb = db
		recorder = notificationtest.NewRecorder()
		fx = storetest.Fixtures{DB: db, Now: now}
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		recorder.Reset()
		storetest.Truncate(gormdb)
	})

	It("sends each party the other's contact exactly once", func() {
		client, provider, offering := fx.Parties()
		m := fx.Mission(client.ID, offering.ID, model.MissionStatusAccepted, now)

		released, err := sweep.NewContactRelease(s, recorder, 100).Release(context.TODO())
		Expect(err).To(BeNil())
		Expect(released).To(Equal(1))

		toClient := recorder.SentTo(client.ID, notification.KindContactRelease)
		Expect(toClient).To(HaveLen(1))
		Expect(toClient[0].MissionID).To(Equal(m.ID))
		Expect(toClient[0].Contact.Email).To(Equal(provider.Email))

		toProvider := recorder.SentTo(provider.ID, notification.KindContactRelease)
		Expect(toProvider).To(HaveLen(1))
		Expect(toProvider[0].Contact.Email).To(Equal(client.Email))

		Expect(storetest.Count(gormdb, "SELECT COUNT(*) FROM missions WHERE contact_released = ?;", true)).To(Equal(1))

		// a second run finds nothing left to release
		released, err = sweep.NewContactRelease(s, recorder, 100).Release(context.TODO())
		Expect(err).To(BeNil())
		Expect(released).To(BeZero())
		Expect(recorder.Sent()).To(HaveLen(2))
	})

	It("ignores missions that are not accepted", func() {
		client, _, offering := fx.Parties()
		for _, status := range []model.MissionStatus{
			model.MissionStatusPending,
			model.MissionStatusInDiscussion,
			model.MissionStatusRefused,
			model.MissionStatusCompleted,
		} {
			fx.Mission(client.ID, offering.ID, status, now)
		}

		released, err := sweep.NewContactRelease(s, recorder, 100).Release(context.TODO())
		Expect(err).To(BeNil())
		Expect(released).To(BeZero())
		Expect(recorder.Sent()).To(BeEmpty())
	})

	It("keeps the release flag when dispatch fails", func() {
		client, _, offering := fx.Parties()
		fx.Mission(client.ID, offering.ID, model.MissionStatusAccepted, now)
		recorder.Err = errors.New("broker down")

		released, err := sweep.NewContactRelease(s, recorder, 100).Release(context.TODO())
		Expect(err).To(BeNil())
		Expect(released).To(Equal(1))
		Expect(storetest.Count(gormdb, "SELECT COUNT(*) FROM missions WHERE contact_released = ?;", true)).To(Equal(1))

		recorder.Reset()
		released, err = sweep.NewContactRelease(s, recorder, 100).Release(context.TODO())
		Expect(err).To(BeNil())
		Expect(released).To(BeZero())
		Expect(recorder.Sent()).To(BeEmpty())
	})

	It("processes one batch per run", func() {
		client, _, offering := fx.Parties()
		for i := 0; i < 3; i++ {
			fx.Mission(client.ID, offering.ID, model.MissionStatusAccepted, now.Add(time.Duration(i)*time.Minute))
		}

		release := sweep.NewContactRelease(s, recorder, 2)
		released, err := release.Release(context.TODO())
		Expect(err).To(BeNil())
		Expect(released).To(Equal(2))

		outcome, err := release.Run(context.TODO())
		Expect(err).To(BeNil())
		Expect(outcome.Sweep).To(Equal(sweep.ContactReleaseName))
		Expect(outcome.Counts).To(HaveKeyWithValue("released", 1))
		Expect(recorder.Sent()).To(HaveLen(6))
	})

	It("releases every mission once under overlapping runs", func() {
		client, _, offering := fx.Parties()
		for i := 0; i < 5; i++ {
			fx.Mission(client.ID, offering.ID, model.MissionStatusAccepted, now)
		}

		results := make(chan int, 3)
		for i := 0; i < 3; i++ {
			go func() {
				defer GinkgoRecover()
				released, err := sweep.NewContactRelease(s, recorder, 100).Release(context.TODO())
				Expect(err).To(BeNil())
				results <- released
			}()
		}

		total := 0
		for i := 0; i < 3; i++ {
			total += <-results
		}
		Expect(total).To(Equal(5))
		Expect(recorder.Sent()).To(HaveLen(10))
	})
})
