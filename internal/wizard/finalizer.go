// internal/wizard/finalizer.go
package wizard

import (
	"context"
	"encoding/json"
	"strings"

	apperrors "receptionist-onboarding/internal/common/errors"
	"receptionist-onboarding/internal/common/logger"
	"receptionist-onboarding/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// Payload is the flattened onboarding data handed to account/agent
// provisioning. Step keys mirror the shape downstream consumers already
// expect from the browser flow.
type Payload struct {
	Step1  Step1Payload             `json:"step1"`
	Step2  models.CallHandling      `json:"step2"`
	Step3  Step3Payload             `json:"step3"`
	Step3b models.CategorySelection `json:"step3b"`
	Step4  map[string]interface{}   `json:"step4"`
	Step5  Step5Payload             `json:"step5"`
	UserID string                   `json:"userId"`
}

type Step1Payload struct {
	BusinessName    string                 `json:"businessName"`
	BusinessDetails *models.BusinessRecord `json:"businessDetails"`
}

type Step3Payload struct {
	ScheduleType   models.ScheduleType         `json:"scheduleType"`
	CustomSchedule map[string]models.DayWindow `json:"customSchedule,omitempty"`
}

type Step5Payload struct {
	SelectedPlan models.Plan `json:"selectedPlan"`
}

// Finalizer validates the accumulated model and transforms it into the
// provisioning payload once the identity provider reports authentication.
type Finalizer struct {
	store  FinalWriter
	logger logger.Logger
}

func NewFinalizer(store FinalWriter, log logger.Logger) *Finalizer {
	return &Finalizer{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "wizard-finalizer"}),
	}
}

// Finalize checks the hard requirements, builds the payload, guards it with
// the payload schema, and persists it plus the legacy side keys atomically.
// Any validation failure happens before the first write: a failed
// finalization leaves zero keys behind.
func (f *Finalizer) Finalize(ctx context.Context, sessionID string, data *models.StepData) (*Payload, error) {
	if err := validateFinal(data); err != nil {
		return nil, err
	}

	payload := BuildPayload(data)

	if err := validatePayloadSchema(payload); err != nil {
		return nil, err
	}

	if err := f.store.WriteFinal(ctx, sessionID, payload, data); err != nil {
		f.logger.Error("finalization write failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return nil, apperrors.NewPersistenceFailure("finalize", err)
	}

	return payload, nil
}

// validateFinal enforces the three hard requirements. Contact info and
// call-handling completeness are not re-validated here; their own steps
// already enforced them.
func validateFinal(data *models.StepData) error {
	if data.BusinessIdentity.Details == nil {
		return apperrors.NewMissingRequiredData("businessDetails", string(StepBusinessSearch))
	}
	if !data.PlanSelection.Valid() {
		return apperrors.NewMissingRequiredData("planSelection", string(StepSignup))
	}
	if len(data.CategorySelection.Answers) == 0 {
		return apperrors.NewMissingRequiredData("categoryAnswers", string(StepFAQ))
	}
	return nil
}

// BuildPayload maps the model to the flattened payload. Step4 is an empty
// object when the contact step was never collected.
func BuildPayload(data *models.StepData) *Payload {
	payload := &Payload{
		Step1: Step1Payload{
			BusinessName:    data.BusinessIdentity.Name,
			BusinessDetails: data.BusinessIdentity.Details,
		},
		Step2: data.CallHandling,
		Step3: Step3Payload{
			ScheduleType: data.Schedule.Type,
		},
		Step3b: data.CategorySelection,
		Step4:  map[string]interface{}{},
		Step5: Step5Payload{
			SelectedPlan: data.PlanSelection,
		},
		UserID: data.PostAuthID,
	}

	// Only the custom variant carries the weekly map downstream.
	if data.Schedule.Type == models.ScheduleCustom {
		payload.Step3.CustomSchedule = data.Schedule.Custom
	}

	if data.ContactInfo.Collected() {
		raw, err := json.Marshal(data.ContactInfo)
		if err == nil {
			var m map[string]interface{}
			if err := json.Unmarshal(raw, &m); err == nil {
				payload.Step4 = m
			}
		}
	}

	return payload
}

// payloadSchema guards the payload shape before any write happens.
var payloadSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"step1", "step2", "step3", "step3b", "step4", "step5"},
	"properties": map[string]interface{}{
		"step1": map[string]interface{}{
			"type":     "object",
			"required": []string{"businessName", "businessDetails"},
			"properties": map[string]interface{}{
				"businessName":    map[string]interface{}{"type": "string", "minLength": 1},
				"businessDetails": map[string]interface{}{"type": "object"},
			},
		},
		"step2": map[string]interface{}{
			"type":     "object",
			"required": []string{"voicemail", "scheduling", "faq"},
		},
		"step3": map[string]interface{}{
			"type":     "object",
			"required": []string{"scheduleType"},
			"properties": map[string]interface{}{
				"scheduleType": map[string]interface{}{
					"type": "string",
					"enum": []string{"business-hours", "24-7", "custom"},
				},
			},
		},
		"step3b": map[string]interface{}{
			"type":     "object",
			"required": []string{"categoryId", "answers"},
		},
		"step4": map[string]interface{}{"type": "object"},
		"step5": map[string]interface{}{
			"type":     "object",
			"required": []string{"selectedPlan"},
			"properties": map[string]interface{}{
				"selectedPlan": map[string]interface{}{
					"type": "string",
					"enum": []string{"starter", "professional", "enterprise"},
				},
			},
		},
	},
}

func validatePayloadSchema(payload *Payload) error {
	schemaLoader := gojsonschema.NewGoLoader(payloadSchema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return apperrors.NewPayloadSchemaInvalid(err.Error())
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return apperrors.NewPayloadSchemaInvalid(strings.Join(errs, "; "))
	}
	return nil
}
