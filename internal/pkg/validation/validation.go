// Package validation wraps go-playground/validator and renders failures as
// *domain.ValidationError so every layer reports them the same way.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dataflow/console/internal/core/domain"
)

// Validator validates structs tagged with `validate:"..."`. Besides the
// built-in tags it understands "password" (the sign-up strength rule) and
// "platform" (a supported scrape platform).
type Validator struct {
	v *validator.Validate
}

var (
	defaultOnce sync.Once
	defaultV    *Validator
)

// Default returns the shared Validator.
func Default() *Validator {
	defaultOnce.Do(func() { defaultV = New() })
	return defaultV
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return domain.CheckPasswordStrength(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		_, err := domain.ParsePlatform(fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

// Struct validates s. It returns nil or a *domain.ValidationError naming the
// first offending field and listing every problem found.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := &domain.ValidationError{}
	for _, fe := range ve {
		if out.Field == "" {
			out.Field = fe.Field()
		}
		out.Problems = append(out.Problems, fieldProblems(fe)...)
	}
	return out
}

// fieldProblems converts a single FieldError into human-readable messages.
func fieldProblems(fe validator.FieldError) []string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return []string{field + " is required"}
	case "email":
		return []string{field + " must be a valid email"}
	case "url":
		return []string{field + " must be an absolute URL"}
	case "max":
		return []string{fmt.Sprintf("%s must be at most %s characters", field, fe.Param())}
	case "min":
		return []string{fmt.Sprintf("%s must be at least %s", field, fe.Param())}
	case "oneof":
		return []string{fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))}
	case "platform":
		names := make([]string, 0, 5)
		for _, p := range domain.Platforms() {
			names = append(names, string(p))
		}
		return []string{fmt.Sprintf("Invalid platform. Supported: %s", strings.Join(names, ", "))}
	case "password":
		var vErr *domain.ValidationError
		if errors.As(domain.CheckPasswordStrength(fmt.Sprint(fe.Value())), &vErr) {
			return vErr.Problems
		}
		return []string{field + " is too weak"}
	default:
		return []string{fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())}
	}
}
