package models

// SliceID names one step-owned portion of the wizard data model. The JSON
// name of each slice matches its SliceID so patches address slices by name.
type SliceID string

const (
	SliceBusinessIdentity  SliceID = "businessIdentity"
	SliceCallHandling      SliceID = "callHandling"
	SliceSchedule          SliceID = "schedule"
	SliceCategorySelection SliceID = "categorySelection"
	SliceContactInfo       SliceID = "contactInfo"
	SlicePlanSelection     SliceID = "planSelection"
	SlicePostAuthID        SliceID = "postAuthId"
)

// StepData is the single source of truth for wizard progress. Each wizard
// step mutates exactly its own slice through an UpdateStep action.
type StepData struct {
	BusinessIdentity  BusinessIdentity  `json:"businessIdentity"`
	CallHandling      CallHandling      `json:"callHandling"`
	Schedule          Schedule          `json:"schedule"`
	CategorySelection CategorySelection `json:"categorySelection"`
	ContactInfo       ContactInfo       `json:"contactInfo"`
	PlanSelection     Plan              `json:"planSelection"`
	PostAuthID        string            `json:"postAuthId,omitempty"`
}

// BusinessIdentity holds the business the receptionist will answer for.
type BusinessIdentity struct {
	Name    string          `json:"name"`
	Details *BusinessRecord `json:"details"`
}

// CallHandling is the set of independently toggleable capability flags.
type CallHandling struct {
	Voicemail  bool `json:"voicemail"`
	Scheduling bool `json:"scheduling"`
	FAQ        bool `json:"faq"`
}

// Any reports whether at least one capability is enabled. The service
// preference step cannot be completed until this holds.
func (c CallHandling) Any() bool {
	return c.Voicemail || c.Scheduling || c.FAQ
}

// ContactInfo is collected only when the selected business has no known
// phone number.
type ContactInfo struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	TermsAccepted bool   `json:"termsAccepted"`
}

// Collected reports whether the contact step gathered anything.
func (c ContactInfo) Collected() bool {
	return c != ContactInfo{}
}

// CategorySelection pairs the chosen industry category with the answers to
// its three tailored questions, keyed by question text.
type CategorySelection struct {
	CategoryID    string            `json:"categoryId"`
	CategoryLabel string            `json:"categoryLabel"`
	Answers       map[string]string `json:"answers"`
}

// NewStepData returns the empty default model: all capability flags off,
// business-hours schedule with the Mon-Fri 09:00-17:00 custom template in
// reserve, empty category and contact slices, no plan.
func NewStepData() *StepData {
	return &StepData{
		Schedule: Schedule{
			Type:   ScheduleBusinessHours,
			Custom: DefaultWeeklyTemplate(),
		},
		CategorySelection: CategorySelection{
			Answers: map[string]string{},
		},
	}
}
