package v1alpha1

import (
	"net/http"
	"strconv"

	"github.com/servicemarket/missions/api/v1alpha1"
	"github.com/servicemarket/missions/internal/auth"
	"github.com/servicemarket/missions/internal/handlers/v1alpha1/mappers"
	"github.com/servicemarket/missions/internal/handlers/validator"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// (POST /api/v1/missions/{id}/evaluations)
func (s *ServiceHandler) SubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var form v1alpha1.EvaluationCreate
	if !decode(w, r, &form, validator.NewEvaluationValidationRules()...) {
		return
	}

	evaluation, err := s.evaluationSrv.SubmitEvaluation(r.Context(), auth.MustHaveUser(r.Context()), id, mappers.EvaluationFormApi(form))
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, mappers.EvaluationToApi(*evaluation))
}

// (GET /api/v1/missions/{id}/evaluations)
func (s *ServiceHandler) ListMissionEvaluations(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	evaluations, err := s.evaluationSrv.ListMissionEvaluations(r.Context(), auth.MustHaveUser(r.Context()), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, v1alpha1.EvaluationList{Items: mappers.EvaluationListToApi(evaluations)})
}

// (GET /api/v1/users/{id}/evaluations)
func (s *ServiceHandler) ListUserEvaluations(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	limit, offset, ok := pagination(w, r)
	if !ok {
		return
	}

	evaluations, summary, err := s.evaluationSrv.ListUserEvaluations(r.Context(), id, limit, offset)
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, v1alpha1.UserEvaluations{
		UserID:  id,
		Count:   summary.Count,
		Average: summary.Average,
		Items:   mappers.EvaluationListToApi(evaluations),
	})
}

func pagination(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit, offset = defaultLimit, 0
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			badRequest(w, r, "limit must be between 1 and 100")
			return 0, 0, false
		}
		limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(w, r, "offset must be a positive number")
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}
