package validator

import (
	"github.com/go-playground/validator/v10"

	ierr "github.com/proxynest/proxynest/internal/errors"
)

var validate *validator.Validate

func NewValidator() *validator.Validate {
	validate = newValidate()
	return validate
}

// Request structs carry their rules in gin binding tags, so the validator
// has to read those instead of its default validate tags or service-level
// validation would silently pass everything.
func newValidate() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

func GetValidator() *validator.Validate {
	return validate
}

// ValidateRequest runs struct tag validation and folds field errors into
// the reportable details of the returned error.
func ValidateRequest(req interface{}) error {
	if validate == nil {
		validate = newValidate()
	}

	if err := validate.Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, err := range validateErrs {
				details[err.Field()] = err.Error()
			}
		}
		return ierr.WithError(err).
			WithHint("Request validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}
