package wizard

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "receptionist-onboarding/internal/common/errors"
	"receptionist-onboarding/internal/common/logger"
	"receptionist-onboarding/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func finalizableStepData() *models.StepData {
	data := models.NewStepData()
	data.BusinessIdentity = models.BusinessIdentity{
		Name: "Ace Plumbing",
		Details: &models.BusinessRecord{
			PlaceID: "place-1",
			Name:    "Ace Plumbing",
			Address: "12 Main St",
			Phone:   "+1 555 0100",
		},
	}
	data.CallHandling = models.CallHandling{Voicemail: true, FAQ: true}
	data.CategorySelection = models.CategorySelection{
		CategoryID:    "home-services",
		CategoryLabel: "Home Services",
		Answers:       answersFor("home-services"),
	}
	data.PlanSelection = models.PlanStarter
	data.PostAuthID = "user-42"
	return data
}

// ==========================
// Finalization Guard Tests
// ==========================

func TestFinalizer_MissingRequirementsWriteNothing(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*models.StepData)
		owningStep string
	}{
		{
			name:       "missing business details",
			mutate:     func(d *models.StepData) { d.BusinessIdentity.Details = nil },
			owningStep: "business-search",
		},
		{
			name:       "missing plan",
			mutate:     func(d *models.StepData) { d.PlanSelection = "" },
			owningStep: "signup",
		},
		{
			name:       "missing category answers",
			mutate:     func(d *models.StepData) { d.CategorySelection.Answers = nil },
			owningStep: "faq",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No expectations registered: any Redis command fails the test.
			client, mock := redismock.NewClientMock()
			store := NewRedisStore(client, "onboarding", time.Hour, logger.NewNop())
			f := NewFinalizer(store, logger.NewNop())

			data := finalizableStepData()
			tt.mutate(data)

			payload, err := f.Finalize(context.Background(), "sess-1", data)
			assert.Nil(t, payload)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMissingRequiredData))
			assert.Equal(t, tt.owningStep, apperrors.OwningStep(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFinalizer_WriteFailureSurfacesAsPersistenceFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "onboarding", time.Hour, logger.NewNop())
	f := NewFinalizer(store, logger.NewNop())

	mr.Close()

	payload, err := f.Finalize(context.Background(), "sess-1", finalizableStepData())
	assert.Nil(t, payload)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePersistenceFailure))
}

// ==========================
// Payload Mapping Tests
// ==========================

func TestBuildPayload_FlattensModel(t *testing.T) {
	data := finalizableStepData()

	payload := BuildPayload(data)

	assert.Equal(t, "Ace Plumbing", payload.Step1.BusinessName)
	require.NotNil(t, payload.Step1.BusinessDetails)
	assert.Equal(t, "place-1", payload.Step1.BusinessDetails.PlaceID)
	assert.Equal(t, data.CallHandling, payload.Step2)
	assert.Equal(t, models.ScheduleBusinessHours, payload.Step3.ScheduleType)
	assert.Nil(t, payload.Step3.CustomSchedule)
	assert.Equal(t, "home-services", payload.Step3b.CategoryID)
	assert.Equal(t, models.PlanStarter, payload.Step5.SelectedPlan)
	assert.Equal(t, "user-42", payload.UserID)
}

func TestBuildPayload_Step4EmptyWithoutContactInfo(t *testing.T) {
	payload := BuildPayload(finalizableStepData())

	raw, err := json.Marshal(payload.Step4)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestBuildPayload_Step4CarriesCollectedContact(t *testing.T) {
	data := finalizableStepData()
	data.ContactInfo = models.ContactInfo{
		FirstName:     "Dana",
		LastName:      "Reyes",
		Email:         "dana@example.com",
		Phone:         "+1 555 0101",
		TermsAccepted: true,
	}

	payload := BuildPayload(data)

	assert.Equal(t, "Dana", payload.Step4["firstName"])
	assert.Equal(t, "dana@example.com", payload.Step4["email"])
	assert.Equal(t, true, payload.Step4["termsAccepted"])
}

func TestBuildPayload_CustomScheduleOnlyForCustomVariant(t *testing.T) {
	data := finalizableStepData()
	data.Schedule.Type = models.ScheduleCustom

	payload := BuildPayload(data)

	assert.Equal(t, models.ScheduleCustom, payload.Step3.ScheduleType)
	assert.Equal(t, data.Schedule.Custom, payload.Step3.CustomSchedule)
}

// ==========================
// Schema Guard Tests
// ==========================

func TestValidatePayloadSchema(t *testing.T) {
	t.Run("well formed payload passes", func(t *testing.T) {
		assert.NoError(t, validatePayloadSchema(BuildPayload(finalizableStepData())))
	})

	t.Run("unknown plan is rejected before any write", func(t *testing.T) {
		data := finalizableStepData()
		data.PlanSelection = "gold"

		err := validatePayloadSchema(BuildPayload(data))
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePayloadSchemaInvalid))
	})

	t.Run("blank business name is rejected", func(t *testing.T) {
		data := finalizableStepData()
		data.BusinessIdentity.Name = ""

		err := validatePayloadSchema(BuildPayload(data))
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePayloadSchemaInvalid))
	})
}

// ==========================
// End To End
// ==========================

func TestFinalizer_SuccessWritesPayloadAndLegacyKeys(t *testing.T) {
	store, mr := newTestStore(t)
	f := NewFinalizer(store, logger.NewNop())

	payload, err := f.Finalize(context.Background(), "sess-1", finalizableStepData())
	require.NoError(t, err)
	require.NotNil(t, payload)

	assert.True(t, mr.Exists("onboarding:payload:sess-1"))
	assert.True(t, mr.Exists("onboarding:legacy:businessDetails:sess-1"))
	assert.True(t, mr.Exists("onboarding:legacy:selectedPlan:sess-1"))
	assert.True(t, mr.Exists("onboarding:legacy:businessCategory:sess-1"))
	assert.True(t, mr.Exists("onboarding:legacy:onboardingData:sess-1"))
}
