package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate   = validator.New(validator.WithRequiredStructEnabled())
	textPolicy = bluemonday.StrictPolicy()
)

// validateStruct runs the struct's validate tags and reports the first
// failing field as a ValidationError.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return newValidationError("", err.Error())
	}

	fe := fieldErrs[0]
	field := jsonPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return newValidationError(field, "is required")
	case "email":
		return newValidationError(field, "must be a valid email address")
	case "min":
		return newValidationError(field, fmt.Sprintf("must be at least %s", fe.Param()))
	case "max":
		return newValidationError(field, fmt.Sprintf("must be at most %s", fe.Param()))
	default:
		return newValidationError(field, fmt.Sprintf("failed %s validation", fe.Tag()))
	}
}

// jsonPath turns "CheckoutRequest.Items[0].Quantity" into "items[0].quantity".
func jsonPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToLower(p[:1]) + p[1:]
	}
	return strings.Join(parts, ".")
}

// cleanText strips markup from customer-supplied text before it is stored
// and later rendered into invoices and emails.
func cleanText(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}
