package sweep_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/servicemarket/missions/internal/config"
	"github.com/servicemarket/missions/internal/notification"
	"github.com/servicemarket/missions/internal/notification/notificationtest"
	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/internal/store/model"
	"github.com/servicemarket/missions/internal/store/storetest"
	"github.com/servicemarket/missions/internal/sweep"
	"github.com/servicemarket/missions/internal/util/clocktest"
)

var _ = Describe("review solicitation", Ordered, func() {
	var (
		s         store.Store
		gormdb    *gorm.DB
		recorder  *notificationtest.Recorder
		clock     *clocktest.FakeClock
		fx        storetest.Fixtures
		solicitor *sweep.ReviewSolicitation

		completedAt = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
		policy      = config.PolicyConfig{
			SolicitationDelay:     24 * time.Hour,
			SolicitationLookback:  30 * 24 * time.Hour,
			ReminderMaxAttempts:   3,
			ReminderRetryInterval: 48 * time.Hour,
			BatchSize:             10,
		}

		client   model.User
		provider model.User
		mission  model.Mission
	)

	BeforeAll(func() {
		db, err := storetest.NewDB()
		Expect(err).To(BeNil())
		s = store.NewStore(db)
		gormdb = db
		recorder = notificationtest.NewRecorder()
		clock = clocktest.NewFakeClock(completedAt)
		fx = storetest.Fixtures{DB: db, Now: completedAt}
		solicitor = sweep.NewReviewSolicitation(s, recorder, clock, policy)
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		var offering model.Offering
		client, provider, offering = fx.Parties()
		mission = fx.Mission(client.ID, offering.ID, model.MissionStatusCompleted, completedAt)
		clock.Set(completedAt.Add(25 * time.Hour))
	})

	AfterEach(func() {
		recorder.Reset()
		storetest.Truncate(gormdb)
	})

	It("solicits both parties once the delay has passed", func() {
		report, err := solicitor.Solicit(context.TODO())
		Expect(err).To(BeNil())
		Expect(report.Sent).To(Equal(2))

		Expect(recorder.SentTo(client.ID, notification.KindReviewReminder)).To(HaveLen(1))
		Expect(recorder.SentTo(provider.ID, notification.KindReviewReminder)).To(HaveLen(1))
		Expect(storetest.Count(gormdb, "SELECT COUNT(*) FROM reminders WHERE mission_id = ? AND status = ? AND attempts = 1;", mission.ID, model.ReminderStatusSent)).To(Equal(2))

		// nothing is due again before the retry interval
		report, err = solicitor.Solicit(context.TODO())
		Expect(err).To(BeNil())
		Expect(report).To(Equal(sweep.SolicitationReport{}))
		Expect(recorder.Sent()).To(HaveLen(2))
	})

	It("waits for the solicitation delay", func() {
		clock.Set(completedAt.Add(23 * time.Hour))

		report, err := solicitor.Solicit(context.TODO())
		Expect(err).To(BeNil())
		Expect(report.Sent).To(BeZero())
		Expect(storetest.Count(gormdb, "SELECT COUNT(*) FROM reminders;")).To(BeZero())
	})

	It("ignores missions completed before the look-back window", func() {
		clock.Set(completedAt.Add(31 * 24 * time.Hour))

		report, err := solicitor.Solicit(context.TODO())
		Expect(err).To(BeNil())
		Expect(report.Sent).To(BeZero())
	})

	It("retries until the budget is spent then expires", func() {
		_, err := solicitor.Solicit(context.TODO())
		Expect(err).To(BeNil())

		for attempt := 2; attempt <= policy.ReminderMaxAttempts; attempt++ {
			clock.Advance(policy.ReminderRetryInterval)
			report, err := solicitor.Solicit(context.TODO())
			Expect(err).To(BeNil())
			Expect(report.Retried).To(Equal(2))

			reminders := recorder.SentTo(client.ID, notification.KindReviewReminder)
			Expect(reminders).To(HaveLen(attempt))
			Expect(reminders[attempt-1].Attempt).To(Equal(attempt))
		}

		clock.Advance(policy.ReminderRetryInterval)
		report, err := solicitor.Solicit(context.TODO())
		Expect(err).To(BeNil())
		Expect(report.Expired).To(Equal(2))
		Expect(storetest.Count(gormdb, "SELECT COUNT(*) FROM reminders WHERE status = ?;", model.ReminderStatusExpired)).To(Equal(2))

		clock.Advance(policy.ReminderRetryInterval)
		report, err = solicitor.Solicit(context.TODO())
		Expect(err).To(BeNil())
		Expect(report).To(Equal(sweep.SolicitationReport{}))
		Expect(recorder.Sent()).To(HaveLen(2 * policy.ReminderMaxAttempts))
	})

	It("stops soliciting a party who has evaluated", func() {
		_, err := solicitor.Solicit(context.TODO())
		Expect(err).To(BeNil())

		fx.Evaluation(mission, provider.ID, model.SideProvider, 5, clock.Now())

		clock.Advance(policy.ReminderRetryInterval)
		report, err := solicitor.Solicit(context.TODO())
		Expect(err).To(BeNil())
		Expect(report.Evaluated).To(Equal(1))
		Expect(report.Retried).To(Equal(1))

		r, err := s.Reminder().Get(context.TODO(), mission.ID, model.SideClient)
		Expect(err).To(BeNil())
		Expect(r.Status).To(Equal(model.ReminderStatusEvaluated))

		Expect(recorder.SentTo(client.ID, notification.KindReviewReminder)).To(HaveLen(1))
		Expect(recorder.SentTo(provider.ID, notification.KindReviewReminder)).To(HaveLen(2))
	})

	It("does not create reminders for a party who evaluated before the first run", func() {
		fx.Evaluation(mission, provider.ID, model.SideClient, 4, completedAt.Add(time.Hour))

		report, err := solicitor.Solicit(context.TODO())
		Expect(err).To(BeNil())
		Expect(report.Sent).To(Equal(1))
		Expect(recorder.SentTo(provider.ID, notification.KindReviewReminder)).To(BeEmpty())
		Expect(recorder.SentTo(client.ID, notification.KindReviewReminder)).To(HaveLen(1))
	})

	It("claims a pending reminder left behind by an interrupted run", func() {
		fx.Reminder(mission.ID, model.SideClient, model.ReminderStatusPending, 0, nil)

		report, err := solicitor.Solicit(context.TODO())
		Expect(err).To(BeNil())
		Expect(report.Sent).To(Equal(2))
		Expect(storetest.Count(gormdb, "SELECT COUNT(*) FROM reminders WHERE mission_id = ?;", mission.ID)).To(Equal(2))
	})
})
