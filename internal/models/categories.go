package models

// Category is one industry vertical with its three tailored FAQ questions.
// The receptionist agent is primed with the answers.
type Category struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Questions []string `json:"questions"`
}

// categoryCatalog is the fixed set of industry categories. Every category
// carries exactly three questions; the FAQ step is complete only when each
// question has a non-empty answer.
var categoryCatalog = []Category{
	{
		ID:    "automotive",
		Label: "Automotive Services",
		Questions: []string{
			"What services do you offer and what are your most common repairs?",
			"Do customers need an appointment, or do you take walk-ins?",
			"What is your typical turnaround time for a standard repair?",
		},
	},
	{
		ID:    "home-services",
		Label: "Home Services",
		Questions: []string{
			"What types of jobs do you handle and what areas do you serve?",
			"Do you offer emergency or after-hours service?",
			"How do you price estimates and service calls?",
		},
	},
	{
		ID:    "medical",
		Label: "Medical & Dental",
		Questions: []string{
			"What insurance plans do you accept?",
			"How should patients prepare for their first visit?",
			"What is your cancellation and rescheduling policy?",
		},
	},
	{
		ID:    "legal",
		Label: "Legal Services",
		Questions: []string{
			"What practice areas do you cover?",
			"Do you offer free initial consultations?",
			"What documents should a new client bring to a consultation?",
		},
	},
	{
		ID:    "beauty",
		Label: "Beauty & Wellness",
		Questions: []string{
			"What services do you offer and what are your prices?",
			"How far in advance should clients book?",
			"What is your policy for late arrivals and no-shows?",
		},
	},
	{
		ID:    "restaurant",
		Label: "Restaurants & Food",
		Questions: []string{
			"Do you take reservations, and for what party sizes?",
			"Do you offer takeout, delivery, or catering?",
			"What are your busiest hours and wait times?",
		},
	},
}

// Categories returns the full category catalog.
func Categories() []Category {
	return categoryCatalog
}

// CategoryByID looks up a category by its identifier.
func CategoryByID(id string) (Category, bool) {
	for _, c := range categoryCatalog {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
