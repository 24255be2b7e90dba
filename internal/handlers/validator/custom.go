package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/servicemarket/missions/api/v1alpha1"
	"github.com/thoas/go-funk"
)

const (
	minScore = 1
	maxScore = 5
)

var (
	sides               = []v1alpha1.Side{v1alpha1.SideClient, v1alpha1.SideProvider}
	responseStatuses    = []v1alpha1.ReclamationStatus{v1alpha1.ReclamationStatusInProgress, v1alpha1.ReclamationStatusResolved, v1alpha1.ReclamationStatusClosed}
	reclamationStatuses = append([]v1alpha1.ReclamationStatus{v1alpha1.ReclamationStatusPending}, responseStatuses...)
)

func uuidValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(uuid.UUID)
	if !ok {
		return false
	}
	return val != uuid.UUID{}
}

func sideValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(v1alpha1.Side)
	if !ok {
		return false
	}
	return funk.Contains(sides, val)
}

func scoreValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(int)
	if !ok {
		return false
	}
	return val >= minScore && val <= maxScore
}

func responseStatusValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(v1alpha1.ReclamationStatus)
	if !ok {
		return false
	}
	return funk.Contains(responseStatuses, val)
}

// reclamationReferenceValidator requires at least one of mission_id and
// evaluation_id.
func reclamationReferenceValidator(sl validator.StructLevel) {
	form, ok := sl.Current().Interface().(v1alpha1.ReclamationCreate)
	if !ok {
		return
	}
	if form.MissionID == nil && form.EvaluationID == nil {
		sl.ReportError(form.MissionID, "MissionID", "mission_id", "reference", "")
		sl.ReportError(form.EvaluationID, "EvaluationID", "evaluation_id", "reference", "")
	}
}

// IsReclamationStatus reports whether s names a reclamation status, for
// query filters.
func IsReclamationStatus(s string) bool {
	return funk.Contains(reclamationStatuses, v1alpha1.ReclamationStatus(s))
}

func IsSide(s string) bool {
	return funk.Contains(sides, v1alpha1.Side(s))
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
