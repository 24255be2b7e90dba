package v1alpha1

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/servicemarket/missions/api/v1alpha1"
	"github.com/servicemarket/missions/internal/auth"
	"github.com/servicemarket/missions/internal/handlers/v1alpha1/mappers"
	"github.com/servicemarket/missions/internal/handlers/validator"
	"github.com/servicemarket/missions/internal/service"
	"github.com/servicemarket/missions/internal/store/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// (POST /api/v1/reclamations)
func (s *ServiceHandler) CreateReclamation(w http.ResponseWriter, r *http.Request) {
	var form v1alpha1.ReclamationCreate
	if !decode(w, r, &form, validator.NewReclamationValidationRules()...) {
		return
	}

	reclamation, err := s.reclamationSrv.CreateReclamation(r.Context(), auth.MustHaveUser(r.Context()), mappers.ReclamationFormApi(form))
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, mappers.ReclamationToApi(*reclamation))
}

// (GET /api/v1/reclamations)
func (s *ServiceHandler) ListReclamations(w http.ResponseWriter, r *http.Request) {
	filter, ok := reclamationFilter(w, r)
	if !ok {
		return
	}

	reclamations, total, err := s.reclamationSrv.ListReclamations(r.Context(), auth.MustHaveUser(r.Context()), filter)
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, mappers.ReclamationListToApi(reclamations, total))
}

// (GET /api/v1/reclamations/export)
func (s *ServiceHandler) ExportReclamations(w http.ResponseWriter, r *http.Request) {
	filter, ok := reclamationFilter(w, r)
	if !ok {
		return
	}

	// the workbook is buffered so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := s.reclamationSrv.ExportReclamations(r.Context(), auth.MustHaveUser(r.Context()), filter, &buf); err != nil {
		renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=reclamations-%s.xlsx", time.Now().UTC().Format("20060102")))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// (GET /api/v1/reclamations/{id})
func (s *ServiceHandler) GetReclamation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	reclamation, err := s.reclamationSrv.GetReclamation(r.Context(), auth.MustHaveUser(r.Context()), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, mappers.ReclamationToApi(*reclamation))
}

// (POST /api/v1/reclamations/{id}/response)
func (s *ServiceHandler) RespondReclamation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var form v1alpha1.ReclamationResponse
	if !decode(w, r, &form, validator.NewReclamationValidationRules()...) {
		return
	}

	reclamation, err := s.reclamationSrv.RespondReclamation(r.Context(), auth.MustHaveUser(r.Context()), id, mappers.ReclamationResponseFormApi(form))
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, mappers.ReclamationToApi(*reclamation))
}

func reclamationFilter(w http.ResponseWriter, r *http.Request) (service.ReclamationFilter, bool) {
	limit, offset, ok := pagination(w, r)
	if !ok {
		return service.ReclamationFilter{}, false
	}
	filter := service.ReclamationFilter{Limit: limit, Offset: offset}

	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		if !validator.IsReclamationStatus(raw) {
			badRequest(w, r, fmt.Sprintf("unknown reclamation status %q", raw))
			return filter, false
		}
		status := model.ReclamationStatus(raw)
		filter.Status = &status
	}
	if raw := q.Get("creator_type"); raw != "" {
		if !validator.IsSide(raw) {
			badRequest(w, r, fmt.Sprintf("unknown creator type %q", raw))
			return filter, false
		}
		side := model.Side(raw)
		filter.CreatorType = &side
	}
	return filter, true
}
