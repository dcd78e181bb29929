package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/notification-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates struct tags for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateDispatch validates a dispatch request against the recipient cap.
func (bv *BusinessValidator) ValidateDispatch(req *DispatchRequest, maxRecipients int) ValidationErrors {
	var errs ValidationErrors

	errs = append(errs, bv.Validate(req)...)

	if maxRecipients > 0 && len(req.UserIDs) > maxRecipients {
		errs = append(errs, ValidationError{
			Field:   "user_ids",
			Message: fmt.Sprintf("cannot target more than %d users", maxRecipients),
			Value:   len(req.UserIDs),
			Rule:    "max_recipients",
		})
	}

	seen := make(map[models.Channel]bool, len(req.Channels))
	for i, c := range req.Channels {
		if seen[c] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("channels[%d]", i),
				Message: "channel listed more than once",
				Value:   c,
				Rule:    "business_logic",
			})
		}
		seen[c] = true
	}

	return errs
}

// ValidatePreferenceUpdate rejects requests that set the same switch twice.
func (bv *BusinessValidator) ValidatePreferenceUpdate(req *UpdatePreferencesRequest) ValidationErrors {
	var errs ValidationErrors

	errs = append(errs, bv.Validate(req)...)

	type key struct {
		t models.NotificationType
		c models.Channel
	}
	seen := make(map[key]bool, len(req.Preferences))
	for i, item := range req.Preferences {
		k := key{item.Type, item.Channel}
		if seen[k] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("preferences[%d]", i),
				Message: fmt.Sprintf("duplicate entry for %s/%s", item.Type, item.Channel),
				Rule:    "business_logic",
			})
		}
		seen[k] = true
	}

	return errs
}

func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("notification_type", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseNotificationType(fl.Field().String())
		return ok
	})

	bv.validate.RegisterValidation("channel", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseChannel(fl.Field().String())
		return ok
	})

	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsValid()
	})

	bv.validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}
