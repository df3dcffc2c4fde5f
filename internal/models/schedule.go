package models

// ScheduleType tags the schedule variant. Only the custom variant carries a
// weekly map; the tag decides which fields are meaningful.
type ScheduleType string

const (
	ScheduleBusinessHours   ScheduleType = "business-hours"
	ScheduleTwentyFourSeven ScheduleType = "24-7"
	ScheduleCustom          ScheduleType = "custom"
)

// Weekday keys for the custom weekly map, matching the JSON the UI sends.
var Weekdays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// DayWindow is one weekday's answering window. Start and End are HH:MM.
type DayWindow struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Schedule is the tagged schedule variant. Custom always holds a template so
// switching the tag to custom starts from Mon-Fri 09:00-17:00 rather than an
// empty grid.
type Schedule struct {
	Type   ScheduleType         `json:"type"`
	Custom map[string]DayWindow `json:"custom"`
}

// DefaultWeeklyTemplate returns the pre-filled custom template used when the
// user switches to the custom variant.
func DefaultWeeklyTemplate() map[string]DayWindow {
	weekly := make(map[string]DayWindow, len(Weekdays))
	for _, day := range Weekdays {
		window := DayWindow{Start: "09:00", End: "17:00"}
		switch day {
		case "saturday", "sunday":
			window.Enabled = false
		default:
			window.Enabled = true
		}
		weekly[day] = window
	}
	return weekly
}

// Valid reports whether the tag is one of the known variants.
func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleBusinessHours, ScheduleTwentyFourSeven, ScheduleCustom:
		return true
	}
	return false
}
