// Package validator wraps go-playground/validator with the custom rules
// used by holding commands.
package validator

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/seenimoa/nsefolio/internal/apperr"
	"github.com/seenimoa/nsefolio/pkg/models"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Get returns the shared validator with all custom rules registered.
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("exchange", validateExchange)
	})
	return validate
}

// Struct validates v and converts failures into an apperr.ErrValidation
// whose message names every offending field.
func Struct(v any) error {
	err := Get().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Wrap(apperr.ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return apperr.WithMessage(apperr.ErrValidation, "%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must not be empty", fe.Field())
	case "exchange":
		return fmt.Sprintf("%s must be NSE or BSE", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func validateExchange(fl validator.FieldLevel) bool {
	return models.Exchange(fl.Field().String()).Valid()
}
