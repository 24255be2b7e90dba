package mappers

import (
	"github.com/servicemarket/missions/api/v1alpha1"
	"github.com/servicemarket/missions/internal/service"
	"github.com/servicemarket/missions/internal/store/model"
)

func MissionFormApi(form v1alpha1.MissionCreate) service.MissionCreateForm {
	return service.MissionCreateForm{
		OfferingID:  form.OfferingID,
		Price:       form.Price,
		Description: form.Description,
	}
}

func EvaluationFormApi(form v1alpha1.EvaluationCreate) service.EvaluationForm {
	return service.EvaluationForm{
		Target:      model.Side(form.Target),
		Punctuality: form.Punctuality,
		Cleanliness: form.Cleanliness,
		Quality:     form.Quality,
		Comment:     form.Comment,
	}
}

func ReclamationFormApi(form v1alpha1.ReclamationCreate) service.ReclamationCreateForm {
	return service.ReclamationCreateForm{
		MissionID:    form.MissionID,
		EvaluationID: form.EvaluationID,
		Subject:      form.Subject,
		Description:  form.Description,
	}
}

func ReclamationResponseFormApi(form v1alpha1.ReclamationResponse) service.ReclamationResponseForm {
	return service.ReclamationResponseForm{
		Status:   model.ReclamationStatus(form.Status),
		Response: form.Response,
	}
}
