package v1alpha1_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/servicemarket/missions/api/v1alpha1"
	"github.com/servicemarket/missions/internal/auth"
	handlers "github.com/servicemarket/missions/internal/handlers/v1alpha1"
	"github.com/servicemarket/missions/internal/notification/notificationtest"
	"github.com/servicemarket/missions/internal/service"
	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/internal/store/model"
	"github.com/servicemarket/missions/internal/store/storetest"
	"github.com/servicemarket/missions/internal/sweep"
	"github.com/servicemarket/missions/internal/util/clocktest"
	"github.com/servicemarket/missions/pkg/middleware"
)

var _ = Describe("mission api", Ordered, func() {
	var (
		s        store.Store
		gormdb   *gorm.DB
		clock    *clocktest.FakeClock
		fx       storetest.Fixtures
		router   *chi.Mux
		recorder *notificationtest.Recorder
		now      = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

		client   model.User
		provider model.User
		admin    model.User
		offering model.Offering
	)

	call := func(method, path string, actor model.User, body any) *httptest.ResponseRecorder {
		var reader *bytes.Reader
		if body != nil {
			data, err := json.Marshal(body)
			Expect(err).To(BeNil())
			reader = bytes.NewReader(data)
		} else {
			reader = bytes.NewReader(nil)
		}

		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(auth.ActorIDHeader, actor.ID.String())
		req.Header.Set(auth.ActorRoleHeader, actor.Role)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	decode := func(rr *httptest.ResponseRecorder, v any) {
		ExpectWithOffset(1, json.Unmarshal(rr.Body.Bytes(), v)).To(Succeed())
	}

	BeforeAll(func() {
		db, err := storetest.NewDB()
		Expect(err).To(BeNil())
		s = store.NewStore(db)
		gormdb = db
		clock = clocktest.NewFakeClock(now)
		fx = storetest.Fixtures{DB: db, Now: now}
		recorder = notificationtest.NewRecorder()

		sweeps := sweep.NewSet(sweep.NewContactRelease(s, recorder, 100))
		h := handlers.NewServiceHandler(
			service.NewMissionService(s, clock),
			service.NewEvaluationService(s, clock, 1000),
			service.NewReclamationService(s, clock),
			sweeps,
		)

		authenticator, err := auth.NewNoneAuthenticator()
		Expect(err).To(BeNil())

		router = chi.NewRouter()
		router.Use(middleware.RequestID)
		router.Route("/api/v1", func(r chi.Router) {
			r.Use(authenticator.Authenticator)
			h.Routes(r)
		})
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		clock.Set(now)
		client, provider, offering = fx.Parties()
		admin = fx.User(model.RoleAdmin)
	})

	AfterEach(func() {
		recorder.Reset()
		storetest.Truncate(gormdb)
	})

	It("walks a mission through its lifecycle", func() {
		rr := call(http.MethodPost, "/api/v1/missions", client, v1alpha1.MissionCreate{
			OfferingID:  offering.ID,
			Price:       80,
			Description: "assemble a wardrobe",
		})
		Expect(rr.Code).To(Equal(http.StatusCreated))

		var mission v1alpha1.Mission
		decode(rr, &mission)
		Expect(mission.Status).To(Equal(v1alpha1.MissionStatusPending))
		Expect(mission.Provider.ID).To(Equal(provider.ID))

		base := fmt.Sprintf("/api/v1/missions/%s", mission.ID)
		Expect(call(http.MethodPost, base+"/discuss", client, nil).Code).To(Equal(http.StatusOK))
		Expect(call(http.MethodPost, base+"/accept", client, nil).Code).To(Equal(http.StatusForbidden))
		Expect(call(http.MethodPost, base+"/accept", provider, nil).Code).To(Equal(http.StatusOK))
		Expect(call(http.MethodPost, base+"/refuse", provider, nil).Code).To(Equal(http.StatusConflict))

		rr = call(http.MethodPost, "/api/v1/sweeps/contact-release", admin, nil)
		Expect(rr.Code).To(Equal(http.StatusOK))
		var outcome v1alpha1.SweepOutcome
		decode(rr, &outcome)
		Expect(outcome.Counts).To(HaveKeyWithValue("released", 1))
		Expect(recorder.Sent()).To(HaveLen(2))

		rr = call(http.MethodPost, base+"/complete", client, nil)
		Expect(rr.Code).To(Equal(http.StatusOK))
		decode(rr, &mission)
		Expect(mission.Status).To(Equal(v1alpha1.MissionStatusCompleted))
		Expect(mission.ContactReleased).To(BeTrue())
	})

	It("maps failures to status codes", func() {
		Expect(call(http.MethodGet, "/api/v1/missions/not-a-uuid", client, nil).Code).To(Equal(http.StatusBadRequest))
		Expect(call(http.MethodGet, "/api/v1/missions/"+uuid.NewString(), client, nil).Code).To(Equal(http.StatusNotFound))
		Expect(call(http.MethodPost, "/api/v1/missions", client, nil).Code).To(Equal(http.StatusBadRequest))
		Expect(call(http.MethodPost, "/api/v1/missions", client, v1alpha1.MissionCreate{OfferingID: offering.ID, Price: -3, Description: "x"}).Code).To(Equal(http.StatusBadRequest))
		Expect(call(http.MethodPost, "/api/v1/missions", provider, v1alpha1.MissionCreate{OfferingID: offering.ID, Price: 3, Description: "x"}).Code).To(Equal(http.StatusForbidden))
		Expect(call(http.MethodPost, "/api/v1/sweeps/contact-release", client, nil).Code).To(Equal(http.StatusForbidden))
		Expect(call(http.MethodPost, "/api/v1/sweeps/unknown", admin, nil).Code).To(Equal(http.StatusNotFound))
	})

	It("keeps evaluations blind until published", func() {
		m := fx.Mission(client.ID, offering.ID, model.MissionStatusCompleted, now)
		path := fmt.Sprintf("/api/v1/missions/%s/evaluations", m.ID)

		rr := call(http.MethodPost, path, client, v1alpha1.EvaluationCreate{Target: v1alpha1.SideProvider, Punctuality: 4, Cleanliness: 5, Quality: 4})
		Expect(rr.Code).To(Equal(http.StatusCreated))
		var created v1alpha1.Evaluation
		decode(rr, &created)
		Expect(created.Average).To(Equal(4.33))

		Expect(call(http.MethodPost, path, client, v1alpha1.EvaluationCreate{Target: v1alpha1.SideProvider, Punctuality: 4, Cleanliness: 5, Quality: 4}).Code).To(Equal(http.StatusConflict))
		Expect(call(http.MethodPost, path, client, v1alpha1.EvaluationCreate{Target: v1alpha1.SideProvider, Punctuality: 9, Cleanliness: 5, Quality: 4}).Code).To(Equal(http.StatusBadRequest))

		var list v1alpha1.EvaluationList
		decode(call(http.MethodGet, path, provider, nil), &list)
		Expect(list.Items).To(BeEmpty())

		decode(call(http.MethodGet, path, client, nil), &list)
		Expect(list.Items).To(HaveLen(1))

		var public v1alpha1.UserEvaluations
		rr = call(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/evaluations", provider.ID), client, nil)
		Expect(rr.Code).To(Equal(http.StatusOK))
		decode(rr, &public)
		Expect(public.Count).To(BeZero())
		Expect(public.Items).To(BeEmpty())

		Expect(call(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/evaluations?limit=0", provider.ID), client, nil).Code).To(Equal(http.StatusBadRequest))
	})

	It("runs the reclamation workflow", func() {
		m := fx.Mission(client.ID, offering.ID, model.MissionStatusCompleted, now)

		rr := call(http.MethodPost, "/api/v1/reclamations", client, v1alpha1.ReclamationCreate{MissionID: &m.ID, Subject: "damage", Description: "a scratch on the floor"})
		Expect(rr.Code).To(Equal(http.StatusCreated))
		var reclamation v1alpha1.Reclamation
		decode(rr, &reclamation)
		Expect(reclamation.CreatorType).To(Equal(v1alpha1.SideClient))

		Expect(call(http.MethodPost, "/api/v1/reclamations", client, v1alpha1.ReclamationCreate{Subject: "damage", Description: "a scratch"}).Code).To(Equal(http.StatusBadRequest))

		respondPath := fmt.Sprintf("/api/v1/reclamations/%s/response", reclamation.ID)
		answer := v1alpha1.ReclamationResponse{Status: v1alpha1.ReclamationStatusResolved, Response: "provider will refinish the floor"}
		Expect(call(http.MethodPost, respondPath, client, answer).Code).To(Equal(http.StatusForbidden))
		Expect(call(http.MethodPost, respondPath, admin, v1alpha1.ReclamationResponse{Status: v1alpha1.ReclamationStatusInProgress, Response: "looking into it now"}).Code).To(Equal(http.StatusOK))
		Expect(call(http.MethodPost, respondPath, admin, answer).Code).To(Equal(http.StatusOK))
		Expect(call(http.MethodPost, respondPath, admin, v1alpha1.ReclamationResponse{Status: v1alpha1.ReclamationStatusInProgress, Response: "reopening this one"}).Code).To(Equal(http.StatusConflict))

		var list v1alpha1.ReclamationList
		rr = call(http.MethodGet, "/api/v1/reclamations?status=resolved&creator_type=client", admin, nil)
		Expect(rr.Code).To(Equal(http.StatusOK))
		decode(rr, &list)
		Expect(list.Total).To(Equal(int64(1)))

		decode(call(http.MethodGet, "/api/v1/reclamations", provider, nil), &list)
		Expect(list.Total).To(BeZero())

		Expect(call(http.MethodGet, "/api/v1/reclamations?status=open", admin, nil).Code).To(Equal(http.StatusBadRequest))
		Expect(call(http.MethodGet, "/api/v1/reclamations/"+reclamation.ID.String(), provider, nil).Code).To(Equal(http.StatusForbidden))

		rr = call(http.MethodGet, "/api/v1/reclamations/export", admin, nil)
		Expect(rr.Code).To(Equal(http.StatusOK))
		Expect(rr.Header().Get("Content-Type")).To(ContainSubstring("spreadsheetml"))
		f, err := excelize.OpenReader(rr.Body)
		Expect(err).To(BeNil())
		rows, err := f.GetRows("Reclamations")
		Expect(err).To(BeNil())
		Expect(rows).To(HaveLen(2))

		Expect(call(http.MethodGet, "/api/v1/reclamations/export", client, nil).Code).To(Equal(http.StatusForbidden))
	})
})
