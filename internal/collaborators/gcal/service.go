// internal/collaborators/gcal/service.go

// Package gcal connects a business's Google Calendar so the receptionist
// agent can check availability and book appointments when the scheduling
// capability is enabled.
package gcal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	apperrors "receptionist-onboarding/internal/common/errors"
	"receptionist-onboarding/internal/common/logger"
	"receptionist-onboarding/internal/common/metrics"
)

const serviceName = "google-calendar"

// Connector carries the OAuth flow and calendar operations for one deployed
// receptionist. The token is obtained during onboarding and stored with the
// provisioned account.
type Connector struct {
	oauthConfig *oauth2.Config
	calendarID  string
	logger      logger.Logger

	// clientOptions is extended in tests to point at a local server.
	clientOptions []option.ClientOption
}

func NewConnector(clientID, clientSecret, redirectURL, calendarID string, log logger.Logger, opts ...option.ClientOption) *Connector {
	return &Connector{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{calendar.CalendarEventsScope, calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		},
		calendarID:    calendarID,
		logger:        log.WithFields(map[string]interface{}{"component": "gcal-connector"}),
		clientOptions: opts,
	}
}

// AuthURL returns the consent URL for the calendar connection step. state
// carries the wizard session so the callback can resume it.
func (c *Connector) AuthURL(state string) string {
	return c.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades the callback code for a token.
func (c *Connector) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, apperrors.NewCollaboratorFailure(serviceName, fmt.Errorf("code exchange: %w", err))
	}
	return token, nil
}

func (c *Connector) service(ctx context.Context, token *oauth2.Token) (*calendar.Service, error) {
	opts := append([]option.ClientOption{
		option.WithTokenSource(c.oauthConfig.TokenSource(ctx, token)),
	}, c.clientOptions...)

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewCollaboratorFailure(serviceName, err)
	}
	return svc, nil
}

// Availability is one free window the agent can offer a caller.
type Availability struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FreeWindows returns the free slots between from and to, derived from the
// freebusy response for the connected calendar.
func (c *Connector) FreeWindows(ctx context.Context, token *oauth2.Token, from, to time.Time) ([]Availability, error) {
	started := time.Now()
	defer func() {
		metrics.CollaboratorDuration.WithLabelValues(serviceName, "freebusy").Observe(time.Since(started).Seconds())
	}()

	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.NewCollaboratorFailure(serviceName, fmt.Errorf("freebusy query: %w", err))
	}

	cal, ok := resp.Calendars[c.calendarID]
	if !ok {
		return []Availability{{Start: from, End: to}}, nil
	}

	busy := make([]Availability, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		start, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			continue
		}
		busy = append(busy, Availability{Start: start, End: end})
	}

	return invertBusy(from, to, busy), nil
}

// Event is one calendar entry surfaced to the onboarding client.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// ListEvents returns the events between from and to on the connected
// calendar, expanded to single occurrences in start order.
func (c *Connector) ListEvents(ctx context.Context, token *oauth2.Token, from, to time.Time) ([]Event, error) {
	started := time.Now()
	defer func() {
		metrics.CollaboratorDuration.WithLabelValues(serviceName, "list-events").Observe(time.Since(started).Seconds())
	}()

	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Events.List(c.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, apperrors.NewCollaboratorFailure(serviceName, fmt.Errorf("list events: %w", err))
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		start, err := parseEventTime(item.Start)
		if err != nil {
			continue
		}
		end, err := parseEventTime(item.End)
		if err != nil {
			continue
		}
		events = append(events, Event{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Start:       start,
			End:         end,
		})
	}
	return events, nil
}

// parseEventTime handles both timed and all-day event boundaries.
func parseEventTime(edt *calendar.EventDateTime) (time.Time, error) {
	if edt == nil {
		return time.Time{}, fmt.Errorf("missing event time")
	}
	if edt.DateTime != "" {
		return time.Parse(time.RFC3339, edt.DateTime)
	}
	return time.Parse("2006-01-02", edt.Date)
}

// invertBusy turns sorted busy blocks into the free windows between them.
func invertBusy(from, to time.Time, busy []Availability) []Availability {
	free := make([]Availability, 0, len(busy)+1)
	cursor := from
	for _, b := range busy {
		if b.Start.After(cursor) {
			free = append(free, Availability{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(to) {
		free = append(free, Availability{Start: cursor, End: to})
	}
	return free
}

// BookAppointment creates an event on the connected calendar.
func (c *Connector) BookAppointment(ctx context.Context, token *oauth2.Token, summary, description string, start, end time.Time) (string, error) {
	started := time.Now()
	defer func() {
		metrics.CollaboratorDuration.WithLabelValues(serviceName, "create-event").Observe(time.Since(started).Seconds())
	}()

	svc, err := c.service(ctx, token)
	if err != nil {
		return "", err
	}

	event := &calendar.Event{
		Summary:     summary,
		Description: description,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}

	created, err := svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", apperrors.NewCollaboratorFailure(serviceName, fmt.Errorf("create event: %w", err))
	}

	c.logger.Info("appointment booked", map[string]interface{}{
		"eventId": created.Id,
		"start":   start.Format(time.RFC3339),
	})
	return created.Id, nil
}
