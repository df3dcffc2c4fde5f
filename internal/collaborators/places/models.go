// internal/collaborators/places/models.go
package places

import (
	"fmt"
	"strings"

	"receptionist-onboarding/internal/models"
)

type searchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID          string `json:"place_id"`
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

type detailsResponse struct {
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
	Result       placeDetail `json:"result"`
}

// placeDetail mirrors the raw details shape. Phone arrives under different
// keys depending on source variant; both are captured and reconciled in
// normalize.
type placeDetail struct {
	PlaceID            string       `json:"place_id"`
	Name               string       `json:"name"`
	FormattedAddress   string       `json:"formatted_address"`
	FormattedPhone     string       `json:"formatted_phone_number"`
	InternationalPhone string       `json:"international_phone_number"`
	Website            string       `json:"website"`
	Rating             float64      `json:"rating"`
	Types              []string     `json:"types"`
	OpeningHours       openingHours `json:"opening_hours"`
	Reviews            []rawReview  `json:"reviews"`
}

type openingHours struct {
	WeekdayText []string    `json:"weekday_text"`
	Periods     []rawPeriod `json:"periods"`
}

type rawPeriod struct {
	Open  rawPoint `json:"open"`
	Close rawPoint `json:"close"`
}

type rawPoint struct {
	Day  int    `json:"day"`
	Time string `json:"time"` // HHMM
}

type rawReview struct {
	AuthorName string  `json:"author_name"`
	Rating     float64 `json:"rating"`
	Text       string  `json:"text"`
}

// normalize maps the raw detail into the wizard's BusinessRecord. The
// international number fills Phone; the display-formatted number fills
// FormattedPhone; when only one variant is present it serves both roles so
// HasUsablePhone sees it either way.
func (d placeDetail) normalize() *models.BusinessRecord {
	phone := d.InternationalPhone
	formatted := d.FormattedPhone
	if phone == "" {
		phone = formatted
	}
	if formatted == "" {
		formatted = phone
	}

	record := &models.BusinessRecord{
		PlaceID:        d.PlaceID,
		Name:           d.Name,
		Address:        d.FormattedAddress,
		Phone:          phone,
		FormattedPhone: formatted,
		Website:        d.Website,
		Rating:         d.Rating,
		HoursText:      strings.Join(d.OpeningHours.WeekdayText, "; "),
		Categories:     normalizeTypes(d.Types),
	}

	for _, r := range d.Reviews {
		record.Reviews = append(record.Reviews, models.ReviewSnip{
			Author: r.AuthorName,
			Rating: r.Rating,
			Text:   r.Text,
		})
	}
	for _, p := range d.OpeningHours.Periods {
		record.OpeningHours = append(record.OpeningHours, models.HoursPeriod{
			Day:   p.Open.Day,
			Open:  p.Open.Time,
			Close: p.Close.Time,
		})
	}
	return record
}

// normalizeTypes rewrites snake_case place types into display labels.
func normalizeTypes(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	out := make([]string, 0, len(types))
	for _, t := range types {
		switch t {
		case "point_of_interest", "establishment":
			// Generic tags carry no signal for the receptionist.
			continue
		}
		out = append(out, titleCase(strings.ReplaceAll(t, "_", " ")))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = fmt.Sprintf("%s%s", strings.ToUpper(w[:1]), w[1:])
	}
	return strings.Join(words, " ")
}
