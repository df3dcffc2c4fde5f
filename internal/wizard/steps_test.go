package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"receptionist-onboarding/internal/models"
)

// ==========================
// Sequencer Tests
// ==========================

func TestDecideSequence(t *testing.T) {
	tests := []struct {
		name     string
		details  *models.BusinessRecord
		expected []StepID
	}{
		{
			name:     "phone present yields four steps without contact info",
			details:  &models.BusinessRecord{PlaceID: "p1", Name: "Ace Plumbing", Phone: "+1 555 0100"},
			expected: []StepID{StepBusinessSearch, StepServicePreference, StepFAQ, StepSignup},
		},
		{
			name:     "formatted phone alone counts as usable",
			details:  &models.BusinessRecord{PlaceID: "p2", Name: "Ace Plumbing", FormattedPhone: "(555) 010-0000"},
			expected: []StepID{StepBusinessSearch, StepServicePreference, StepFAQ, StepSignup},
		},
		{
			name:     "no phone inserts contact info before signup",
			details:  &models.BusinessRecord{PlaceID: "p3", Name: "Quiet Cafe"},
			expected: []StepID{StepBusinessSearch, StepServicePreference, StepFAQ, StepContactInfo, StepSignup},
		},
		{
			name:     "missing record behaves like no phone",
			details:  nil,
			expected: []StepID{StepBusinessSearch, StepServicePreference, StepFAQ, StepContactInfo, StepSignup},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := models.NewStepData()
			data.BusinessIdentity.Details = tt.details

			assert.Equal(t, tt.expected, DecideSequence(data))
		})
	}
}

func TestStepIndex(t *testing.T) {
	seq := []StepID{StepBusinessSearch, StepServicePreference, StepFAQ, StepSignup}

	assert.Equal(t, 1, StepIndex(seq, StepBusinessSearch))
	assert.Equal(t, 4, StepIndex(seq, StepSignup))
	assert.Equal(t, 0, StepIndex(seq, StepContactInfo))
}

func TestStepAt(t *testing.T) {
	seq := BaseSequence()

	assert.Equal(t, StepBusinessSearch, StepAt(seq, 1))
	assert.Equal(t, StepFAQ, StepAt(seq, 3))
	assert.Equal(t, StepID(""), StepAt(seq, 0))
	assert.Equal(t, StepID(""), StepAt(seq, 4))
}
