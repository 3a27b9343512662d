package utils

import (
	"sync"

	"carryconnect/internal/models"

	"github.com/go-playground/validator/v10"
)

// RequestValidator wraps go-playground/validator for request DTOs.
type RequestValidator struct {
	validate *validator.Validate
}

var (
	validatorOnce     sync.Once
	validatorInstance *RequestValidator
)

// GetValidator returns the process-wide validator instance.
func GetValidator() *RequestValidator {
	validatorOnce.Do(func() {
		validatorInstance = &RequestValidator{validate: validator.New()}
	})
	return validatorInstance
}

// Validate checks struct tags and flattens violations into field-level
// errors. A nil return means the value passed.
func (v *RequestValidator) Validate(i interface{}) []models.FieldError {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []models.FieldError{{Path: "request", Message: err.Error()}}
	}
	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Path:    fe.Field(),
			Message: "failed on the '" + fe.Tag() + "' rule",
		})
	}
	return out
}
