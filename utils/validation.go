package utils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate = validator.New()

// ValidateStruct validates a struct using go-playground/validator
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewFieldError(validationErrors)
		}
		return err
	}
	return nil
}

// FieldError wraps request DTO validation errors with per-field detail
type FieldError struct {
	Message string
	Fields  map[string]string
}

// Error implements the error interface
func (e *FieldError) Error() string {
	return e.Message
}

// NewFieldError creates a FieldError from validator.ValidationErrors
func NewFieldError(errs validator.ValidationErrors) *FieldError {
	fields := make(map[string]string)
	for _, err := range errs {
		field := err.Field()
		tag := err.Tag()

		switch tag {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		case "min":
			fields[field] = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			fields[field] = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "oneof":
			fields[field] = fmt.Sprintf("%s must be one of: %s", field, err.Param())
		default:
			fields[field] = fmt.Sprintf("%s validation failed on '%s' tag", field, tag)
		}
	}

	return &FieldError{
		Message: "request validation failed",
		Fields:  fields,
	}
}
