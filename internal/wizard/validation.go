// internal/wizard/validation.go
package wizard

import (
	"sort"
	"strings"

	apperrors "receptionist-onboarding/internal/common/errors"
	"receptionist-onboarding/internal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ValidateStep runs the step-local validation for one wizard step. A nil
// return means the step may complete; otherwise a VALIDATION_FAILURE error
// lists the offending fields. Validation failures never bubble past the
// owning step.
func ValidateStep(step StepID, data *models.StepData) error {
	switch step {
	case StepBusinessSearch:
		return validateBusinessSearch(data)
	case StepServicePreference:
		return validateServicePreference(data)
	case StepFAQ:
		return validateFAQ(data)
	case StepContactInfo:
		return validateContactInfo(data)
	case StepSignup:
		return validateSignup(data)
	default:
		return nil
	}
}

func validateBusinessSearch(data *models.StepData) error {
	var fieldErrs []apperrors.FieldError

	bi := data.BusinessIdentity
	if strings.TrimSpace(bi.Name) == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "name", Message: "business name is required"})
	}
	// A fetched record is always fully populated; only user-entered stubs may
	// omit the place identifier.
	if bi.Details != nil && !bi.Details.UserEntered && bi.Details.PlaceID == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "details", Message: "business record is incomplete"})
	}

	if len(fieldErrs) > 0 {
		return apperrors.NewValidationFailure(string(StepBusinessSearch), fieldErrs)
	}
	return nil
}

func validateServicePreference(data *models.StepData) error {
	if !data.CallHandling.Any() {
		return apperrors.NewValidationFailure(string(StepServicePreference), []apperrors.FieldError{
			{Field: "callHandling", Message: "select at least one call handling capability"},
		})
	}
	if err := validateScheduleWindows(data.Schedule); err != nil {
		return err
	}
	return nil
}

// validateScheduleWindows checks the custom weekly map. Windows only matter
// when the custom variant is active and the day is enabled.
func validateScheduleWindows(s models.Schedule) error {
	var fieldErrs []apperrors.FieldError

	if !s.Type.Valid() {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "schedule.type", Message: "unknown schedule type"})
	}
	if s.Type == models.ScheduleCustom {
		days := make([]string, 0, len(s.Custom))
		for day := range s.Custom {
			days = append(days, day)
		}
		sort.Strings(days)
		for _, day := range days {
			window := s.Custom[day]
			if window.Enabled && window.Start >= window.End {
				fieldErrs = append(fieldErrs, apperrors.FieldError{
					Field:   "schedule.custom." + day,
					Message: "start time must be before end time",
				})
			}
		}
	}

	if len(fieldErrs) > 0 {
		return apperrors.NewValidationFailure(string(StepServicePreference), fieldErrs)
	}
	return nil
}

func validateFAQ(data *models.StepData) error {
	sel := data.CategorySelection
	var fieldErrs []apperrors.FieldError

	if sel.CategoryID == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "categoryId", Message: "choose an industry category"})
		return apperrors.NewValidationFailure(string(StepFAQ), fieldErrs)
	}

	category, ok := models.CategoryByID(sel.CategoryID)
	if !ok {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "categoryId", Message: "unknown category"})
		return apperrors.NewValidationFailure(string(StepFAQ), fieldErrs)
	}

	// The answer set must match the category's question list exactly: every
	// question answered with non-blank text, no stray keys from a previously
	// chosen category.
	for _, question := range category.Questions {
		if strings.TrimSpace(sel.Answers[question]) == "" {
			fieldErrs = append(fieldErrs, apperrors.FieldError{Field: question, Message: "answer is required"})
		}
	}
	for key := range sel.Answers {
		if !containsString(category.Questions, key) {
			fieldErrs = append(fieldErrs, apperrors.FieldError{Field: key, Message: "answer does not belong to the selected category"})
		}
	}

	if len(fieldErrs) > 0 {
		return apperrors.NewValidationFailure(string(StepFAQ), fieldErrs)
	}
	return nil
}

func validateContactInfo(data *models.StepData) error {
	c := data.ContactInfo

	err := validation.ValidateStruct(&c,
		validation.Field(&c.FirstName, validation.Required),
		validation.Field(&c.LastName, validation.Required),
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Phone, validation.Required),
	)

	var fieldErrs []apperrors.FieldError
	if errs, ok := err.(validation.Errors); ok {
		fields := make([]string, 0, len(errs))
		for field := range errs {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fieldErrs = append(fieldErrs, apperrors.FieldError{Field: field, Message: errs[field].Error()})
		}
	}
	if !c.TermsAccepted {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "termsAccepted", Message: "terms must be accepted"})
	}

	if len(fieldErrs) > 0 {
		return apperrors.NewValidationFailure(string(StepContactInfo), fieldErrs)
	}
	return nil
}

func validateSignup(data *models.StepData) error {
	if !data.PlanSelection.Valid() {
		return apperrors.NewValidationFailure(string(StepSignup), []apperrors.FieldError{
			{Field: "planSelection", Message: "choose a plan"},
		})
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
