package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/servicemarket/missions/internal/service"
	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/internal/store/model"
	"github.com/servicemarket/missions/internal/store/storetest"
	"github.com/servicemarket/missions/internal/util"
	"github.com/servicemarket/missions/internal/util/clocktest"
)

var _ = Describe("Evaluation Service", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		clock  *clocktest.FakeClock
		svc    *service.EvaluationService
		fx     storetest.Fixtures
		start  = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

		client   model.User
		provider model.User
		offering model.Offering
		mission  model.Mission
	)

	BeforeAll(func() {
		db, err := storetest.NewDB()
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		clock = clocktest.NewFakeClock(start)
		svc = service.NewEvaluationService(s, clock, 1000)
		fx = storetest.Fixtures{DB: db, Now: start}
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		clock.Set(start)
		client, provider, offering = fx.Parties()
		mission = fx.Mission(client.ID, offering.ID, model.MissionStatusCompleted, start.Add(-2*time.Hour))
	})

	AfterEach(func() {
		storetest.Truncate(gormdb)
	})

	Context("SubmitEvaluation", func() {
		It("stores a hidden evaluation with the rounded average", func() {
			e, err := svc.SubmitEvaluation(context.TODO(), actorOf(client), mission.ID, service.EvaluationForm{
				Target:      model.SideProvider,
				Punctuality: 4,
				Cleanliness: 5,
				Quality:     4,
			})
			Expect(err).To(BeNil())
			Expect(e.Average).To(Equal(4.33))
			Expect(e.Visible).To(BeFalse())
			Expect(e.TargetUserID).To(Equal(provider.ID))
			Expect(e.AuthorID).To(Equal(client.ID))

			Expect(storetest.Count(gormdb, "SELECT COUNT(*) FROM evaluations WHERE visible = ?;", false)).To(Equal(1))
		})

		It("returns a conflict on the second submission", func() {
			form := service.EvaluationForm{Target: model.SideClient, Punctuality: 3, Cleanliness: 4, Quality: 3}
			_, err := svc.SubmitEvaluation(context.TODO(), actorOf(provider), mission.ID, form)
			Expect(err).To(BeNil())

			_, err = svc.SubmitEvaluation(context.TODO(), actorOf(provider), mission.ID, form)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrConflict{}))
			Expect(storetest.Count(gormdb, "SELECT COUNT(*) FROM evaluations;")).To(Equal(1))
		})

		It("accepts exactly one of several concurrent submissions", func() {
			const submitters = 8
			form := service.EvaluationForm{Target: model.SideProvider, Punctuality: 5, Cleanliness: 4, Quality: 5}

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				accepted  int
				conflicts int
				others    []error
			)
			for i := 0; i < submitters; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := svc.SubmitEvaluation(context.TODO(), actorOf(client), mission.ID, form)

					mu.Lock()
					defer mu.Unlock()
					var conflict *service.ErrConflict
					switch {
					case err == nil:
						accepted++
					case errors.As(err, &conflict):
						conflicts++
					default:
						others = append(others, err)
					}
				}()
			}
			wg.Wait()

			Expect(others).To(BeEmpty())
			Expect(accepted).To(Equal(1))
			Expect(conflicts).To(Equal(submitters - 1))
			Expect(storetest.Count(gormdb, "SELECT COUNT(*) FROM evaluations WHERE mission_id = ?;", mission.ID)).To(Equal(1))
		})

		It("reports a conflict from the unique index when the lookup misses the first evaluation", func() {
			form := service.EvaluationForm{Target: model.SideClient, Punctuality: 2, Cleanliness: 3, Quality: 4}
			_, err := svc.SubmitEvaluation(context.TODO(), actorOf(provider), mission.ID, form)
			Expect(err).To(BeNil())

			late := service.NewEvaluationService(staleEvaluationStore{Store: s}, clock, 1000)
			_, err = late.SubmitEvaluation(context.TODO(), actorOf(provider), mission.ID, form)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrConflict{}))
			Expect(storetest.Count(gormdb, "SELECT COUNT(*) FROM evaluations WHERE mission_id = ?;", mission.ID)).To(Equal(1))
		})

		It("forbids rating oneself or someone else's mission", func() {
			_, err := svc.SubmitEvaluation(context.TODO(), actorOf(client), mission.ID,
				service.EvaluationForm{Target: model.SideClient, Punctuality: 3, Cleanliness: 3, Quality: 3})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrUnauthorized{}))

			stranger := fx.User(model.RoleClient)
			_, err = svc.SubmitEvaluation(context.TODO(), actorOf(stranger), mission.ID,
				service.EvaluationForm{Target: model.SideProvider, Punctuality: 3, Cleanliness: 3, Quality: 3})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrUnauthorized{}))
		})

		It("refuses missions that are not completed", func() {
			accepted := fx.Mission(client.ID, offering.ID, model.MissionStatusAccepted, start)
			_, err := svc.SubmitEvaluation(context.TODO(), actorOf(client), accepted.ID,
				service.EvaluationForm{Target: model.SideProvider, Punctuality: 3, Cleanliness: 3, Quality: 3})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidState{}))
		})

		It("returns not found for an unknown mission", func() {
			_, err := svc.SubmitEvaluation(context.TODO(), actorOf(client), uuid.New(),
				service.EvaluationForm{Target: model.SideProvider, Punctuality: 3, Cleanliness: 3, Quality: 3})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		})

		DescribeTable("validates the form",
			func(form service.EvaluationForm) {
				_, err := svc.SubmitEvaluation(context.TODO(), actorOf(client), mission.ID, form)
				Expect(err).To(BeAssignableToTypeOf(&service.ErrValidation{}))
			},
			Entry("score too low", service.EvaluationForm{Target: model.SideProvider, Punctuality: 0, Cleanliness: 3, Quality: 3}),
			Entry("score too high", service.EvaluationForm{Target: model.SideProvider, Punctuality: 3, Cleanliness: 6, Quality: 3}),
			Entry("unknown target", service.EvaluationForm{Target: model.Side("admin"), Punctuality: 3, Cleanliness: 3, Quality: 3}),
			Entry("comment too long", service.EvaluationForm{Target: model.SideProvider, Punctuality: 3, Cleanliness: 3, Quality: 3, Comment: util.PtrTo(strings.Repeat("a", 1001))}),
		)
	})

	Context("double-blind reads", func() {
		It("shows a party its own hidden evaluation but not the counterpart's", func() {
			fx.Evaluation(mission, provider.ID, model.SideProvider, 5, start)
			fx.Evaluation(mission, provider.ID, model.SideClient, 4, start)

			forClient, err := svc.ListMissionEvaluations(context.TODO(), actorOf(client), mission.ID)
			Expect(err).To(BeNil())
			Expect(forClient).To(HaveLen(1))
			Expect(forClient[0].Target).To(Equal(model.SideProvider))

			admin := fx.User(model.RoleAdmin)
			forAdmin, err := svc.ListMissionEvaluations(context.TODO(), actorOf(admin), mission.ID)
			Expect(err).To(BeNil())
			Expect(forAdmin).To(HaveLen(2))

			_, err = s.Evaluation().RevealMission(context.TODO(), mission.ID)
			Expect(err).To(BeNil())

			forClient, err = svc.ListMissionEvaluations(context.TODO(), actorOf(client), mission.ID)
			Expect(err).To(BeNil())
			Expect(forClient).To(HaveLen(2))
		})

		It("summarises only published evaluations of a user", func() {
			fx.Evaluation(mission, provider.ID, model.SideProvider, 5, start)
			other := fx.Mission(client.ID, offering.ID, model.MissionStatusCompleted, start)
			fx.Evaluation(other, provider.ID, model.SideProvider, 4, start)
			third := fx.Mission(client.ID, offering.ID, model.MissionStatusCompleted, start)
			fx.Evaluation(third, provider.ID, model.SideProvider, 1, start)

			_, err := s.Evaluation().RevealMission(context.TODO(), mission.ID)
			Expect(err).To(BeNil())
			_, err = s.Evaluation().RevealMission(context.TODO(), other.ID)
			Expect(err).To(BeNil())

			list, summary, err := svc.ListUserEvaluations(context.TODO(), provider.ID, 1, 0)
			Expect(err).To(BeNil())
			Expect(list).To(HaveLen(1))
			Expect(summary.Count).To(Equal(2))
			Expect(summary.Average).To(Equal(4.5))
		})
	})
})

// staleEvaluationStore answers every evaluation lookup with an empty list, as
// a reader racing a concurrent insert would see it.
type staleEvaluationStore struct {
	store.Store
}

func (s staleEvaluationStore) Evaluation() store.Evaluation {
	return staleEvaluations{Evaluation: s.Store.Evaluation()}
}

type staleEvaluations struct {
	store.Evaluation
}

func (staleEvaluations) List(context.Context, *store.EvaluationQueryFilter, *store.QueryOptions) (model.EvaluationList, error) {
	return model.EvaluationList{}, nil
}
