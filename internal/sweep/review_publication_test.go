package sweep_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/internal/store/model"
	"github.com/servicemarket/missions/internal/store/storetest"
	"github.com/servicemarket/missions/internal/sweep"
	"github.com/servicemarket/missions/internal/util/clocktest"
)

var _ = Describe("review publication", Ordered, func() {
	var (
		s         store.Store
		gormdb    *gorm.DB
		clock     *clocktest.FakeClock
		fx        storetest.Fixtures
		publisher *sweep.ReviewPublication

		day0  = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
		grace = 7 * 24 * time.Hour

		provider model.User
		mission  model.Mission
	)

	visible := func() int {
		return storetest.Count(gormdb, "SELECT COUNT(*) FROM evaluations WHERE visible = ?;", true)
	}

	BeforeAll(func() {
		db, err := storetest.NewDB()
		Expect(err).To(BeNil())
		s = store.NewStore(db)
		gormdb = db
		clock = clocktest.NewFakeClock(day0)
		fx = storetest.Fixtures{DB: db, Now: day0}
		publisher = sweep.NewReviewPublication(s, clock, grace, 2)
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		var (
			client   model.User
			offering model.Offering
		)
		client, provider, offering = fx.Parties()
		mission = fx.Mission(client.ID, offering.ID, model.MissionStatusCompleted, day0)
		clock.Set(day0)
	})

	AfterEach(func() {
		storetest.Truncate(gormdb)
	})

	It("reveals both evaluations once each side has rated", func() {
		fx.Evaluation(mission, provider.ID, model.SideProvider, 5, day0)
		fx.Evaluation(mission, provider.ID, model.SideClient, 4, day0.Add(time.Hour))
		clock.Set(day0.Add(24 * time.Hour))

		published, err := publisher.Publish(context.TODO())
		Expect(err).To(BeNil())
		Expect(published).To(Equal(2))
		Expect(visible()).To(Equal(2))

		published, err = publisher.Publish(context.TODO())
		Expect(err).To(BeNil())
		Expect(published).To(BeZero())
	})

	It("keeps a lone evaluation hidden for the grace period", func() {
		fx.Evaluation(mission, provider.ID, model.SideProvider, 5, day0)

		clock.Set(day0.Add(6 * 24 * time.Hour))
		published, err := publisher.Publish(context.TODO())
		Expect(err).To(BeNil())
		Expect(published).To(BeZero())
		Expect(visible()).To(BeZero())

		clock.Set(day0.Add(grace))
		published, err = publisher.Publish(context.TODO())
		Expect(err).To(BeNil())
		Expect(published).To(Equal(1))
		Expect(visible()).To(Equal(1))

		// the late counterpart has a visible sibling and goes out on the next run
		fx.Evaluation(mission, provider.ID, model.SideClient, 3, day0.Add(8*24*time.Hour))
		clock.Set(day0.Add(9 * 24 * time.Hour))
		published, err = publisher.Publish(context.TODO())
		Expect(err).To(BeNil())
		Expect(published).To(Equal(1))
		Expect(visible()).To(Equal(2))
	})

	It("walks past hidden rows that stay hidden", func() {
		// a full batch of young lone evaluations sits ahead of a rated pair
		for i := 0; i < 3; i++ {
			client, _, offering := fx.Parties()
			young := fx.Mission(client.ID, offering.ID, model.MissionStatusCompleted, day0)
			fx.Evaluation(young, offering.ProviderID, model.SideProvider, 4, day0.Add(10*24*time.Hour))
		}
		fx.Evaluation(mission, provider.ID, model.SideClient, 2, day0.Add(11*24*time.Hour))
		fx.Evaluation(mission, provider.ID, model.SideProvider, 3, day0.Add(11*24*time.Hour+time.Minute))
		clock.Set(day0.Add(12 * 24 * time.Hour))

		outcome, err := publisher.Run(context.TODO())
		Expect(err).To(BeNil())
		Expect(outcome.Sweep).To(Equal(sweep.ReviewPublicationName))
		Expect(outcome.Counts).To(HaveKeyWithValue("published", 2))
		Expect(storetest.Count(gormdb, "SELECT COUNT(*) FROM evaluations WHERE visible = ? AND mission_id = ?;", true, mission.ID)).To(Equal(2))
		Expect(visible()).To(Equal(2))
	})
})
