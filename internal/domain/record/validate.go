package record

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	validateErr  error
)

// newValidator builds the validator with the enum validators registered.
func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	enums := map[string][]string{
		"criticality": {
			string(CriticalityLow), string(CriticalityMedium),
			string(CriticalityHigh), string(CriticalityCritical),
		},
		"account_status": {
			string(StatusActive), string(StatusOrphaned), string(StatusTerminated),
		},
		"grant_type": {
			string(GrantStanding), string(GrantTimebound),
		},
	}
	for tag, allowed := range enums {
		allowed := allowed
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			val := fl.Field().String()
			for _, a := range allowed {
				if val == a {
					return true
				}
			}
			return false
		})
		if err != nil {
			return nil, fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return v, nil
}

// Validate checks the mandatory identity fields and the enum fields.
// The returned error is a *ValidationError describing the first violation.
func (r Record) Validate() error {
	validateOnce.Do(func() {
		validate, validateErr = newValidator()
	})
	if validateErr != nil {
		return validateErr
	}

	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	if fe.Tag() == "required" {
		return &ValidationError{Field: field, Msg: "missing required value"}
	}
	return &ValidationError{
		Field: field,
		Msg:   fmt.Sprintf("invalid value %q", fe.Value()),
	}
}
