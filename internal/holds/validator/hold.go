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

type HoldValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewHoldValidator(log *logger.Logger) *HoldValidator {
	v := validator.New()

	if err := validation.RegisterCommonTags(v); err != nil {
		log.Fatal("Failed to register common validation tags", "error", err)
	}

	return &HoldValidator{
		validate: v,
		logger:   log,
	}
}

func (v *HoldValidator) ValidateRequest(req *model.HoldRequest) error {
	return v.translate(v.validate.Struct(req))
}

func (v *HoldValidator) ValidateConfirm(req *model.ConfirmRequest) error {
	return v.translate(v.validate.Struct(req))
}

func (v *HoldValidator) ValidateResend(req *model.ResendRequest) error {
	if err := v.translate(v.validate.Struct(req)); err != nil {
		return err
	}
	if req.ID == "" && req.Email == "" {
		return ValidationErrors{
			ValidationError{Field: "ID", Message: "either id or email must be provided"},
		}
	}
	return nil
}

func (v *HoldValidator) translate(err error) error {
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return translateValidationErrors(validationErrs)
	}
	return err
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "hhmm":
			message = fmt.Sprintf("%s must be a 24-hour HH:MM time", err.Field())
		case "isodate":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", err.Field())
		case "len":
			message = fmt.Sprintf("%s must be exactly %s characters", err.Field(), err.Param())
		case "numeric":
			message = fmt.Sprintf("%s must contain only digits", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
