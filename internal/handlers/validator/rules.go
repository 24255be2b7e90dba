package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/servicemarket/missions/api/v1alpha1"
)

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func registerStructFn(fn validator.StructLevelFunc, types ...any) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		v.RegisterStructValidation(fn, types...)
	}
}

func NewMissionValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("uuid_set", uuidValidator),
		},
	}
}

func NewEvaluationValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("side", sideValidator),
		},
		{
			Rule: registerFn("score", scoreValidator),
		},
	}
}

func NewReclamationValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("reclamation_response_status", responseStatusValidator),
		},
		{
			Rule: registerStructFn(reclamationReferenceValidator, v1alpha1.ReclamationCreate{}),
		},
	}
}
