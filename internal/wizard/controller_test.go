package wizard

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "receptionist-onboarding/internal/common/errors"
	"receptionist-onboarding/internal/common/logger"
	"receptionist-onboarding/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type stubProvisioner struct {
	calls    int
	userID   string
	payload  *Payload
	failWith error
}

func (p *stubProvisioner) Provision(_ context.Context, userID string, payload *Payload) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.calls++
	p.userID = userID
	p.payload = payload
	return nil
}

type stubNotifier struct {
	calls int
}

func (n *stubNotifier) SendWelcome(context.Context, *Payload) error {
	n.calls++
	return nil
}

func newTestController(t *testing.T) (*Controller, *stubProvisioner, *stubNotifier, *miniredis.Miniredis) {
	t.Helper()

	store, mr := newTestStore(t)
	prov := &stubProvisioner{}
	not := &stubNotifier{}
	c := NewController(store, store, logger.NewNop(), WithProvisioner(prov), WithNotifier(not))
	return c, prov, not, mr
}

func completeStep(t *testing.T, c *Controller, ctx context.Context, sessionID string) State {
	t.Helper()
	st, err := c.CompleteStep(ctx, sessionID)
	require.NoError(t, err)
	return st
}

func dispatch(t *testing.T, c *Controller, ctx context.Context, sessionID string, a Action) State {
	t.Helper()
	st, err := c.Dispatch(ctx, sessionID, a)
	require.NoError(t, err)
	return st
}

// ==========================
// Session Lifecycle
// ==========================

func TestController_StartSessionGeneratesID(t *testing.T) {
	c, _, _, _ := newTestController(t)

	id, st := c.StartSession(context.Background(), "")
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, st.CurrentStep)
	assert.Equal(t, BaseSequence(), st.Sequence)
}

func TestController_StartSessionRehydratesSavedModel(t *testing.T) {
	c, _, _, _ := newTestController(t)
	ctx := context.Background()

	id, _ := c.StartSession(ctx, "")
	dispatch(t, c, ctx, id, UpdateStep(models.SliceBusinessIdentity, map[string]interface{}{
		"name": "Ace Plumbing",
	}))

	// A second controller sharing the store resumes from the saved model.
	shared := c.store.(*RedisStore)
	c2 := NewController(shared, shared, logger.NewNop())
	_, st := c2.StartSession(ctx, id)
	assert.Equal(t, "Ace Plumbing", st.Data.BusinessIdentity.Name)
}

func TestController_GetUnknownSession(t *testing.T) {
	c, _, _, _ := newTestController(t)

	_, err := c.Get("missing")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSessionNotFound))
}

func TestController_DispatchClampsGoto(t *testing.T) {
	c, _, _, _ := newTestController(t)
	ctx := context.Background()

	id, _ := c.StartSession(ctx, "")

	st := dispatch(t, c, ctx, id, Goto(99))
	assert.Equal(t, 3, st.CurrentStep)

	st = dispatch(t, c, ctx, id, Goto(-5))
	assert.Equal(t, 1, st.CurrentStep)
}

// ==========================
// Full Flow: Business With Phone
// ==========================

func TestController_FourStepFlowWithPhone(t *testing.T) {
	c, prov, not, _ := newTestController(t)
	ctx := context.Background()

	id, _ := c.StartSession(ctx, "")

	dispatch(t, c, ctx, id, UpdateStep(models.SliceBusinessIdentity, map[string]interface{}{
		"name": "Ace Plumbing",
		"details": &models.BusinessRecord{
			PlaceID: "place-1",
			Name:    "Ace Plumbing",
			Address: "12 Main St",
			Phone:   "+1 555 0100",
		},
	}))
	st := completeStep(t, c, ctx, id)
	assert.Equal(t, 2, st.CurrentStep)

	dispatch(t, c, ctx, id, UpdateStep(models.SliceCallHandling, map[string]interface{}{
		"voicemail": true, "faq": true,
	}))
	st = completeStep(t, c, ctx, id)
	assert.Equal(t, 3, st.CurrentStep)

	dispatch(t, c, ctx, id, UpdateStep(models.SliceCategorySelection, map[string]interface{}{
		"categoryId":    "home-services",
		"categoryLabel": "Home Services",
		"answers":       answersFor("home-services"),
	}))
	st = completeStep(t, c, ctx, id)

	// The phone decision yields four steps and skips contact info.
	assert.Equal(t, []StepID{StepBusinessSearch, StepServicePreference, StepFAQ, StepSignup}, st.Sequence)
	assert.Equal(t, 4, st.CurrentStep)
	assert.Equal(t, StepSignup, StepAt(st.Sequence, st.CurrentStep))

	dispatch(t, c, ctx, id, UpdateStep(models.SlicePlanSelection, "starter"))

	payload, err := c.HandleAuthenticated(ctx, id, "user-1")
	require.NoError(t, err)
	require.NotNil(t, payload)

	assert.Equal(t, "Ace Plumbing", payload.Step1.BusinessName)
	assert.Equal(t, models.PlanStarter, payload.Step5.SelectedPlan)
	assert.Equal(t, "user-1", payload.UserID)
	assert.Empty(t, payload.Step4)

	assert.Equal(t, 1, prov.calls)
	assert.Equal(t, "user-1", prov.userID)
	assert.Equal(t, 1, not.calls)
}

// ==========================
// Full Flow: No Phone, Custom Schedule
// ==========================

func TestController_FiveStepFlowWithoutPhone(t *testing.T) {
	c, prov, _, _ := newTestController(t)
	ctx := context.Background()

	id, _ := c.StartSession(ctx, "")

	dispatch(t, c, ctx, id, UpdateStep(models.SliceBusinessIdentity, map[string]interface{}{
		"name": "Quiet Cafe",
		"details": &models.BusinessRecord{
			Name:        "Quiet Cafe",
			UserEntered: true,
		},
	}))
	completeStep(t, c, ctx, id)

	dispatch(t, c, ctx, id, UpdateStep(models.SliceCallHandling, map[string]interface{}{
		"scheduling": true,
	}))
	dispatch(t, c, ctx, id, UpdateStep(models.SliceSchedule, map[string]interface{}{
		"type": "custom",
	}))
	completeStep(t, c, ctx, id)

	dispatch(t, c, ctx, id, UpdateStep(models.SliceCategorySelection, map[string]interface{}{
		"categoryId": "restaurant",
		"answers":    answersFor("restaurant"),
	}))
	st := completeStep(t, c, ctx, id)

	// No usable phone inserts the contact step.
	assert.Equal(t, []StepID{StepBusinessSearch, StepServicePreference, StepFAQ, StepContactInfo, StepSignup}, st.Sequence)
	assert.Equal(t, StepContactInfo, StepAt(st.Sequence, st.CurrentStep))

	dispatch(t, c, ctx, id, UpdateStep(models.SliceContactInfo, map[string]interface{}{
		"firstName":     "Dana",
		"lastName":      "Reyes",
		"email":         "dana@example.com",
		"phone":         "+1 555 0101",
		"termsAccepted": true,
	}))
	st = completeStep(t, c, ctx, id)
	assert.Equal(t, StepSignup, StepAt(st.Sequence, st.CurrentStep))

	// The legacy plan alias normalizes on the way in.
	dispatch(t, c, ctx, id, UpdateStep(models.SlicePlanSelection, "business-pro"))

	payload, err := c.HandleAuthenticated(ctx, id, "user-2")
	require.NoError(t, err)

	assert.Equal(t, models.PlanProfessional, payload.Step5.SelectedPlan)
	assert.Equal(t, models.ScheduleCustom, payload.Step3.ScheduleType)
	require.NotNil(t, payload.Step3.CustomSchedule)
	assert.Equal(t, "Dana", payload.Step4["firstName"])
	assert.Equal(t, 1, prov.calls)
}

// ==========================
// Reset Mid Wizard
// ==========================

func TestController_ResetMidWizard(t *testing.T) {
	c, _, _, mr := newTestController(t)
	ctx := context.Background()

	id, _ := c.StartSession(ctx, "")
	dispatch(t, c, ctx, id, UpdateStep(models.SliceBusinessIdentity, map[string]interface{}{
		"name": "Ace Plumbing",
		"details": &models.BusinessRecord{
			PlaceID: "place-1",
			Name:    "Ace Plumbing",
			Phone:   "+1 555 0100",
		},
	}))
	completeStep(t, c, ctx, id)
	require.True(t, mr.Exists("onboarding:state:"+id))

	st := dispatch(t, c, ctx, id, Reset())

	assert.Equal(t, 1, st.CurrentStep)
	assert.Equal(t, BaseSequence(), st.Sequence)
	assert.Equal(t, models.NewStepData(), st.Data)
	assert.False(t, mr.Exists("onboarding:state:"+id))
}

// ==========================
// Authentication Edge Cases
// ==========================

func TestController_StaleAuthEventRejected(t *testing.T) {
	c, prov, not, _ := newTestController(t)
	ctx := context.Background()

	id, _ := c.StartSession(ctx, "")

	_, err := c.HandleAuthenticated(ctx, id, "user-1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStaleAuthEvent))
	assert.Zero(t, prov.calls)
	assert.Zero(t, not.calls)
}

func TestController_MissingDataNavigatesBackToOwningStep(t *testing.T) {
	c, prov, _, _ := newTestController(t)
	ctx := context.Background()

	id, _ := c.StartSession(ctx, "")

	dispatch(t, c, ctx, id, UpdateStep(models.SliceBusinessIdentity, map[string]interface{}{
		"name": "Ace Plumbing",
		"details": &models.BusinessRecord{
			PlaceID: "place-1",
			Name:    "Ace Plumbing",
			Phone:   "+1 555 0100",
		},
	}))
	completeStep(t, c, ctx, id)
	dispatch(t, c, ctx, id, UpdateStep(models.SliceCallHandling, map[string]interface{}{"faq": true}))
	completeStep(t, c, ctx, id)
	dispatch(t, c, ctx, id, UpdateStep(models.SliceCategorySelection, map[string]interface{}{
		"categoryId": "legal",
		"answers":    answersFor("legal"),
	}))
	completeStep(t, c, ctx, id)
	dispatch(t, c, ctx, id, UpdateStep(models.SlicePlanSelection, "starter"))

	// Answers wiped after the FAQ step was passed: the hard requirement
	// fails at finalization and navigation snaps back to the FAQ step.
	dispatch(t, c, ctx, id, UpdateStep(models.SliceCategorySelection, map[string]interface{}{
		"answers": map[string]string{},
	}))

	_, err := c.HandleAuthenticated(ctx, id, "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMissingRequiredData))
	assert.Zero(t, prov.calls)

	st, getErr := c.Get(id)
	require.NoError(t, getErr)
	assert.Equal(t, StepFAQ, StepAt(st.Sequence, st.CurrentStep))
}
