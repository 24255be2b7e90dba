package mappers

import (
	"github.com/servicemarket/missions/api/v1alpha1"
	"github.com/servicemarket/missions/internal/store/model"
	"github.com/servicemarket/missions/internal/sweep"
)

func MissionToApi(m model.Mission) v1alpha1.Mission {
	return v1alpha1.Mission{
		ID:              m.ID,
		Client:          v1alpha1.Party{ID: m.ClientID, Name: m.Client.FullName()},
		Provider:        v1alpha1.Party{ID: m.ProviderID(), Name: m.Offering.Provider.FullName()},
		OfferingID:      m.OfferingID,
		OfferingTitle:   m.Offering.Title,
		Status:          v1alpha1.MissionStatus(m.Status),
		ContactReleased: m.ContactReleased,
		Price:           m.Price,
		Description:     m.Description,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func EvaluationToApi(e model.Evaluation) v1alpha1.Evaluation {
	return v1alpha1.Evaluation{
		ID:           e.ID,
		MissionID:    e.MissionID,
		Target:       v1alpha1.Side(e.Target),
		AuthorID:     e.AuthorID,
		TargetUserID: e.TargetUserID,
		Punctuality:  e.Punctuality,
		Cleanliness:  e.Cleanliness,
		Quality:      e.Quality,
		Average:      e.Average,
		Comment:      e.Comment,
		Visible:      e.Visible,
		CreatedAt:    e.CreatedAt,
	}
}

// EvaluationListToApi never returns a nil slice so the payload carries [].
func EvaluationListToApi(evaluations model.EvaluationList) []v1alpha1.Evaluation {
	items := make([]v1alpha1.Evaluation, 0, len(evaluations))
	for _, e := range evaluations {
		items = append(items, EvaluationToApi(e))
	}
	return items
}

func ReclamationToApi(r model.Reclamation) v1alpha1.Reclamation {
	return v1alpha1.Reclamation{
		ID:           r.ID,
		MissionID:    r.MissionID,
		EvaluationID: r.EvaluationID,
		CreatorID:    r.CreatorID,
		CreatorType:  v1alpha1.Side(r.CreatorType),
		Subject:      r.Subject,
		Description:  r.Description,
		Status:       v1alpha1.ReclamationStatus(r.Status),
		Response:     r.Response,
		RespondedAt:  r.RespondedAt,
		ResponderID:  r.ResponderID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func ReclamationListToApi(reclamations model.ReclamationList, total int64) v1alpha1.ReclamationList {
	items := make([]v1alpha1.Reclamation, 0, len(reclamations))
	for _, r := range reclamations {
		items = append(items, ReclamationToApi(r))
	}
	return v1alpha1.ReclamationList{Total: total, Items: items}
}

func SweepOutcomeToApi(o sweep.Outcome) v1alpha1.SweepOutcome {
	return v1alpha1.SweepOutcome{Sweep: o.Sweep, Counts: o.Counts}
}
