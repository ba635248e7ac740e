package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/class-series-api/internal/models"
)

// NewValidator returns a validator with the "clock" tag for HH:MM fields.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return models.ValidClock(fl.Field().String())
	})
	return v
}
