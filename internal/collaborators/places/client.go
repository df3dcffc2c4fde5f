// internal/collaborators/places/client.go

// Package places wraps the Google Places API used by the business-search
// step. Every record leaving this package is normalized into
// models.BusinessRecord; source-shape quirks (phone vs
// formatted_phone_number, camel vs snake keys) never reach wizard state.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "receptionist-onboarding/internal/common/errors"
	commonhttp "receptionist-onboarding/internal/common/http"
	"receptionist-onboarding/internal/common/logger"
	"receptionist-onboarding/internal/common/metrics"
	"receptionist-onboarding/internal/models"
)

const serviceName = "google-places"

// detailFields limits the details response to the fields the wizard shows.
const detailFields = "place_id,name,formatted_address,formatted_phone_number," +
	"international_phone_number,website,rating,opening_hours,types,reviews"

type Client struct {
	apiKey  string
	baseURL string
	http    *commonhttp.Client
	logger  logger.Logger
}

func NewClient(apiKey, baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    commonhttp.NewClient(timeout),
		logger:  log.WithFields(map[string]interface{}{"component": "places-client"}),
	}
}

// Search runs a text search and returns candidate rows for the picker.
func (c *Client) Search(ctx context.Context, query string) ([]models.BusinessCandidate, error) {
	started := time.Now()
	defer func() {
		metrics.CollaboratorDuration.WithLabelValues(serviceName, "search").Observe(time.Since(started).Seconds())
	}()

	endpoint := fmt.Sprintf("%s/textsearch/json?query=%s&key=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(c.apiKey))

	var resp searchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	candidates := make([]models.BusinessCandidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		candidates = append(candidates, models.BusinessCandidate{
			PlaceID: r.PlaceID,
			Name:    r.Name,
			Address: r.FormattedAddress,
		})
	}
	return candidates, nil
}

// Details fetches one place and normalizes it into a BusinessRecord.
func (c *Client) Details(ctx context.Context, placeID string) (*models.BusinessRecord, error) {
	started := time.Now()
	defer func() {
		metrics.CollaboratorDuration.WithLabelValues(serviceName, "details").Observe(time.Since(started).Seconds())
	}()

	endpoint := fmt.Sprintf("%s/details/json?place_id=%s&fields=%s&key=%s",
		c.baseURL, url.QueryEscape(placeID), url.QueryEscape(detailFields), url.QueryEscape(c.apiKey))

	var resp detailsResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	return resp.Result.normalize(), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.NewCollaboratorFailure(serviceName, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("places request failed", map[string]interface{}{"error": err.Error()})
		return apperrors.NewCollaboratorFailure(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewCollaboratorFailure(serviceName, fmt.Errorf("places API returned %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewCollaboratorFailure(serviceName, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// checkStatus maps the API's in-body status field. ZERO_RESULTS is not an
// error; the picker just shows an empty list.
func checkStatus(status, errorMessage string) error {
	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	default:
		return apperrors.NewCollaboratorFailure(serviceName,
			fmt.Errorf("places API status %s: %s", status, errorMessage))
	}
}
