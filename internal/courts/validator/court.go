package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"turnolibre/pkg/logger"
	"turnolibre/pkg/model"
	"turnolibre/pkg/validation"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type CourtValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCourtValidator(log *logger.Logger) *CourtValidator {
	v := validator.New()

	if err := validation.RegisterCommonTags(v); err != nil {
		log.Fatal("Failed to register common validation tags", "error", err)
	}

	return &CourtValidator{
		validate: v,
		logger:   log,
	}
}

func (v *CourtValidator) Validate(court *model.Court) error {
	if err := v.validate.Struct(court); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if !hhmmBefore(court.OpenFrom, court.OpenUntil) {
		return ValidationErrors{
			ValidationError{
				Field:   "OpenUntil",
				Message: "horaHasta must be after horaDesde",
			},
		}
	}

	return nil
}

func (v *CourtValidator) ValidateUpdate(update *model.CourtUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.OpenFrom != "" && update.OpenUntil != "" && !hhmmBefore(update.OpenFrom, update.OpenUntil) {
		return ValidationErrors{
			ValidationError{
				Field:   "OpenUntil",
				Message: "horaHasta must be after horaDesde",
			},
		}
	}

	return nil
}

func hhmmBefore(from, until string) bool {
	return from < until
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "hhmm":
			message = fmt.Sprintf("%s must be a 24-hour HH:MM time", err.Field())
		case "isodate":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", err.Field())
		case "weekday_es":
			message = fmt.Sprintf("%s must be a Spanish weekday name", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
