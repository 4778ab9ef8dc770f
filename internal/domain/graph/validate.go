package graph

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

var validate = validator.New()

// Validate checks the struct tags of any entity or request payload and turns
// failures into a single validation AppError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return appErrors.NewValidationError(err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	fields := make(map[string]any, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, formatFieldError(fe))
		fields[fe.Field()] = fe.Tag()
	}

	return appErrors.NewValidationError(strings.Join(messages, "; ")).WithDetails(fields)
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
