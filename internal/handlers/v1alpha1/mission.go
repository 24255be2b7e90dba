package v1alpha1

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/api/v1alpha1"
	"github.com/servicemarket/missions/internal/auth"
	"github.com/servicemarket/missions/internal/handlers/v1alpha1/mappers"
	"github.com/servicemarket/missions/internal/handlers/validator"
	"github.com/servicemarket/missions/internal/store/model"
)

// (POST /api/v1/missions)
func (s *ServiceHandler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var form v1alpha1.MissionCreate
	if !decode(w, r, &form, validator.NewMissionValidationRules()...) {
		return
	}

	user := auth.MustHaveUser(r.Context())
	mission, err := s.missionSrv.CreateMission(r.Context(), user, mappers.MissionFormApi(form))
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, mappers.MissionToApi(*mission))
}

// (GET /api/v1/missions/{id})
func (s *ServiceHandler) GetMission(w http.ResponseWriter, r *http.Request) {
	s.missionAction(w, r, s.missionSrv.GetMission)
}

// (POST /api/v1/missions/{id}/discuss)
func (s *ServiceHandler) DiscussMission(w http.ResponseWriter, r *http.Request) {
	s.missionAction(w, r, s.missionSrv.DiscussMission)
}

// (POST /api/v1/missions/{id}/accept)
func (s *ServiceHandler) AcceptMission(w http.ResponseWriter, r *http.Request) {
	s.missionAction(w, r, s.missionSrv.AcceptMission)
}

// (POST /api/v1/missions/{id}/refuse)
func (s *ServiceHandler) RefuseMission(w http.ResponseWriter, r *http.Request) {
	s.missionAction(w, r, s.missionSrv.RefuseMission)
}

// (POST /api/v1/missions/{id}/complete)
func (s *ServiceHandler) CompleteMission(w http.ResponseWriter, r *http.Request) {
	s.missionAction(w, r, s.missionSrv.CompleteMission)
}

type missionFn func(ctx context.Context, actor auth.User, id uuid.UUID) (*model.Mission, error)

func (s *ServiceHandler) missionAction(w http.ResponseWriter, r *http.Request, fn missionFn) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	mission, err := fn(r.Context(), auth.MustHaveUser(r.Context()), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, mappers.MissionToApi(*mission))
}
