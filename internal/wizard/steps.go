// internal/wizard/steps.go
package wizard

import "receptionist-onboarding/internal/models"

// StepID identifies one wizard step. Step order and count are owned by the
// sequencer; nothing else hardcodes a step total.
type StepID string

const (
	StepBusinessSearch    StepID = "business-search"
	StepServicePreference StepID = "service-preference"
	StepFAQ               StepID = "faq"
	StepContactInfo       StepID = "contact-info"
	StepSignup            StepID = "signup"
)

// BaseSequence is the fixed prefix shown before the phone decision is made.
func BaseSequence() []StepID {
	return []StepID{StepBusinessSearch, StepServicePreference, StepFAQ}
}

// DecideSequence computes the full step sequence at the FAQ decision point.
// A business with a usable phone number goes straight to signup; otherwise a
// contact-info step is inserted first. The decision is taken once, when the
// FAQ step completes, and sticks until the user passes the decision point
// again going forward.
func DecideSequence(data *models.StepData) []StepID {
	seq := BaseSequence()
	if data.BusinessIdentity.Details.HasUsablePhone() {
		return append(seq, StepSignup)
	}
	return append(seq, StepContactInfo, StepSignup)
}

// StepIndex returns the 1-based position of id in seq, or 0 when absent.
func StepIndex(seq []StepID, id StepID) int {
	for i, s := range seq {
		if s == id {
			return i + 1
		}
	}
	return 0
}

// StepAt returns the step at the 1-based position n, or "" when out of range.
func StepAt(seq []StepID, n int) StepID {
	if n < 1 || n > len(seq) {
		return ""
	}
	return seq[n-1]
}
