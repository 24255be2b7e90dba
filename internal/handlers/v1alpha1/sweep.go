package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/servicemarket/missions/api/v1alpha1"
	"github.com/servicemarket/missions/internal/auth"
	"github.com/servicemarket/missions/internal/handlers/v1alpha1/mappers"
	"github.com/servicemarket/missions/internal/service"
)

// (POST /api/v1/sweeps/{name})
func (s *ServiceHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())
	if !user.IsAdmin() {
		renderError(w, r, service.NewErrUnauthorized(user.ID, "run sweep"))
		return
	}

	sw, err := s.sweeps.Get(chi.URLParam(r, "name"))
	if err != nil {
		respond(w, r, http.StatusNotFound, v1alpha1.Error{Message: err.Error()})
		return
	}

	outcome, err := sw.Run(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, mappers.SweepOutcomeToApi(outcome))
}
