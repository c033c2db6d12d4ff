// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"spendwise/internal/models"
	"spendwise/internal/period"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn adds the custom tags to v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("hex_color", validateHexColor)
	_ = v.RegisterValidation("frequency", validateFrequency)
	_ = v.RegisterValidation("upcoming_status", validateUpcomingStatus)
	_ = v.RegisterValidation("date_filter", validateDateFilter)
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateFrequency(fl validator.FieldLevel) bool {
	return models.Frequency(fl.Field().String()).Valid()
}

func validateUpcomingStatus(fl validator.FieldLevel) bool {
	return models.UpcomingStatus(fl.Field().String()).Valid()
}

func validateDateFilter(fl validator.FieldLevel) bool {
	return period.Kind(fl.Field().String()).Valid()
}
