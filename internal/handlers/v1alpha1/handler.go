package v1alpha1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/servicemarket/missions/api/v1alpha1"
	"github.com/servicemarket/missions/internal/handlers/validator"
	"github.com/servicemarket/missions/internal/service"
	"github.com/servicemarket/missions/internal/sweep"
)

type ServiceHandler struct {
	missionSrv     *service.MissionService
	evaluationSrv  *service.EvaluationService
	reclamationSrv *service.ReclamationService
	sweeps         sweep.Set
}

func NewServiceHandler(missionService *service.MissionService, evaluationService *service.EvaluationService, reclamationService *service.ReclamationService, sweeps sweep.Set) *ServiceHandler {
	return &ServiceHandler{
		missionSrv:     missionService,
		evaluationSrv:  evaluationService,
		reclamationSrv: reclamationService,
		sweeps:         sweeps,
	}
}

// Routes mounts the authenticated API. The caller installs the
// authentication middleware on the router first.
func (s *ServiceHandler) Routes(r chi.Router) {
	r.Route("/missions", func(r chi.Router) {
		r.Post("/", s.CreateMission)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetMission)
			r.Post("/discuss", s.DiscussMission)
			r.Post("/accept", s.AcceptMission)
			r.Post("/refuse", s.RefuseMission)
			r.Post("/complete", s.CompleteMission)
			r.Get("/evaluations", s.ListMissionEvaluations)
			r.Post("/evaluations", s.SubmitEvaluation)
		})
	})
	r.Get("/users/{id}/evaluations", s.ListUserEvaluations)
	r.Route("/reclamations", func(r chi.Router) {
		r.Post("/", s.CreateReclamation)
		r.Get("/", s.ListReclamations)
		r.Get("/export", s.ExportReclamations)
		r.Get("/{id}", s.GetReclamation)
		r.Post("/{id}/response", s.RespondReclamation)
	})
	r.Post("/sweeps/{name}", s.RunSweep)
}

func (s *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, v1alpha1.Health{Status: "ok"})
}

func respond(w http.ResponseWriter, r *http.Request, status int, v render.Renderer) {
	render.Status(r, status)
	_ = render.Render(w, r, v)
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	respond(w, r, http.StatusBadRequest, v1alpha1.Error{Message: msg})
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, r, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// decode reads the JSON body into form and runs the validation rules on it.
func decode(w http.ResponseWriter, r *http.Request, form any, rules ...validator.ValidationRule) bool {
	if r.Body == nil || r.ContentLength == 0 {
		badRequest(w, r, "empty body")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(form); err != nil {
		badRequest(w, r, "malformed body: "+err.Error())
		return false
	}

	v := validator.NewValidator()
	v.Register(rules...)
	if err := v.Struct(form); err != nil {
		badRequest(w, r, err.Error())
		return false
	}
	return true
}
