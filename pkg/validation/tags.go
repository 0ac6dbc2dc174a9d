// Package validation registers the custom struct-tag validators shared by
// the domain validators: HH:MM times, YYYY-MM-DD dates and Spanish weekday
// names.
package validation

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"turnolibre/pkg/sanitizer"
)

var (
	hhmmRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

	weekdayNames = map[string]bool{
		"lunes":     true,
		"martes":    true,
		"miercoles": true,
		"jueves":    true,
		"viernes":   true,
		"sabado":    true,
		"domingo":   true,
	}
)

func RegisterCommonTags(v *validator.Validate) error {
	if err := v.RegisterValidation("hhmm", validateHHMM); err != nil {
		return err
	}
	if err := v.RegisterValidation("isodate", validateISODate); err != nil {
		return err
	}
	return v.RegisterValidation("weekday_es", validateSpanishWeekday)
}

func validateHHMM(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

func validateSpanishWeekday(fl validator.FieldLevel) bool {
	return weekdayNames[sanitizer.NormalizeWeekday(fl.Field().String())]
}
