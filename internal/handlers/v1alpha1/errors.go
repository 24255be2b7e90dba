package v1alpha1

import (
	"errors"
	"net/http"

	"github.com/servicemarket/missions/api/v1alpha1"
	"github.com/servicemarket/missions/internal/service"
	"github.com/servicemarket/missions/pkg/requestid"
	"go.uber.org/zap"
)

func statusOf(err error) int {
	var (
		unauthorized *service.ErrUnauthorized
		transition   *service.ErrInvalidTransition
		state        *service.ErrInvalidState
		conflict     *service.ErrConflict
		notFound     *service.ErrResourceNotFound
		validation   *service.ErrValidation
	)
	switch {
	case errors.As(err, &unauthorized):
		return http.StatusForbidden
	case errors.As(err, &transition), errors.As(err, &state), errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// renderError hides internal failures behind the request id.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status != http.StatusInternalServerError {
		respond(w, r, status, v1alpha1.Error{Message: err.Error()})
		return
	}

	zap.S().Named("handler").Errorw("request failed", "request_id", requestid.FromRequest(r), "path", r.URL.Path, "error", err)
	respond(w, r, status, v1alpha1.Error{
		Message:   "internal error",
		RequestID: requestid.FromContextPtr(r.Context()),
	})
}
