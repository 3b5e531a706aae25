// Package validation wraps go-playground/validator and converts its failures
// into apperr validation errors keyed by json field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ukydev/engineeye/internal/apperr"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Validator validates request and document structs.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the custom "username" tag registered.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Lower-case letters, digits and underscores only. Length is checked by max.
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Struct validates s and returns an *apperr.Error on failure.
func (v *Validator) Struct(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.convert(err)
	}
	return nil
}

func (v *Validator) convert(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = message(fe)
	}
	return apperr.ValidationFields("validation failed", fields)
}

// fieldPath drops the top-level struct name from the namespace so nested
// fields read like "fuelRecord.liters".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "eqfield":
		return "must match " + fe.Param()
	case "username":
		return "may only contain lower-case letters, digits and underscores"
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
