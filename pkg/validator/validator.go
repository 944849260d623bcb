// Package validator adapts go-playground/validator to echo's Validator
// interface so request DTOs are checked from their binding tags.
package validator

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps a single shared validator instance; the underlying
// library caches struct metadata, so one instance serves all handlers.
type CustomValidator struct {
	validate *validator.Validate
}

// New builds the validator echo binds to at startup
func New() *CustomValidator {
	return &CustomValidator{validate: validator.New()}
}

// Validate checks i against its struct tags
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}
