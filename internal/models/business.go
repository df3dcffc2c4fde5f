package models

// BusinessRecord is the normalized business-identity data fetched from the
// business-search collaborator. All source variants (phone vs
// formatted_phone_number, camel vs snake case) are normalized into this shape
// at the places client boundary before the record enters wizard state.
type BusinessRecord struct {
	PlaceID        string        `json:"placeId"`
	Name           string        `json:"name"`
	Address        string        `json:"address"`
	Phone          string        `json:"phone,omitempty"`
	FormattedPhone string        `json:"formattedPhone,omitempty"`
	Website        string        `json:"website,omitempty"`
	Rating         float64       `json:"rating,omitempty"`
	HoursText      string        `json:"hoursText,omitempty"`
	Categories     []string      `json:"categories,omitempty"`
	Reviews        []ReviewSnip  `json:"reviews,omitempty"`
	OpeningHours   []HoursPeriod `json:"openingHours,omitempty"`

	// UserEntered marks a record typed in manually instead of fetched from
	// the search collaborator. Fetched records are always fully populated.
	UserEntered bool `json:"userEntered,omitempty"`
}

// ReviewSnip is a short review excerpt shown during business confirmation.
type ReviewSnip struct {
	Author string  `json:"author"`
	Rating float64 `json:"rating"`
	Text   string  `json:"text"`
}

// HoursPeriod is one open/close window from the place's opening-hours
// structure. Day uses 0=Sunday..6=Saturday as the search API reports it.
type HoursPeriod struct {
	Day   int    `json:"day"`
	Open  string `json:"open"`  // HHMM
	Close string `json:"close"` // HHMM
}

// HasUsablePhone reports whether the record carries any phone number the
// receptionist agent could be attached to. Either field counts.
func (r *BusinessRecord) HasUsablePhone() bool {
	if r == nil {
		return false
	}
	return r.Phone != "" || r.FormattedPhone != ""
}

// BusinessCandidate is a search result row before details are fetched.
type BusinessCandidate struct {
	PlaceID string `json:"placeId"`
	Name    string `json:"name"`
	Address string `json:"address"`
}
