package handler

import (
	"github.com/dataflow/console/internal/pkg/validation"
)

// echoValidator adapts the shared validator so Echo can call c.Validate(req).
// Failures come back as *domain.ValidationError.
type echoValidator struct {
	v *validation.Validator
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{v: validation.Default()}
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	return ev.v.Struct(i)
}
