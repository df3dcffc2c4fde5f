package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "receptionist-onboarding/internal/common/errors"
	"receptionist-onboarding/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-key", server.URL, 2*time.Second, logger.NewNop())
}

// ==========================
// Search Tests
// ==========================

func TestClient_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/textsearch/json", r.URL.Path)
		assert.Equal(t, "Ace Plumbing Austin", r.URL.Query().Get("query"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"place_id": "p1", "name": "Ace Plumbing", "formatted_address": "12 Main St, Austin, TX"},
				{"place_id": "p2", "name": "Ace Plumbing North", "formatted_address": "88 Oak Ave, Austin, TX"}
			]
		}`))
	})

	candidates, err := client.Search(context.Background(), "Ace Plumbing Austin")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "p1", candidates[0].PlaceID)
	assert.Equal(t, "Ace Plumbing", candidates[0].Name)
	assert.Equal(t, "12 Main St, Austin, TX", candidates[0].Address)
}

func TestClient_SearchZeroResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})

	candidates, err := client.Search(context.Background(), "nothing here")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestClient_SearchAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "key invalid"}`))
	})

	_, err := client.Search(context.Background(), "anything")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCollaboratorFailure))
}

func TestClient_SearchHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Search(context.Background(), "anything")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCollaboratorFailure))
}

// ==========================
// Details Tests
// ==========================

func TestClient_DetailsNormalizesRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/details/json", r.URL.Path)
		assert.Equal(t, "p1", r.URL.Query().Get("place_id"))

		_, _ = w.Write([]byte(`{
			"status": "OK",
			"result": {
				"place_id": "p1",
				"name": "Ace Plumbing",
				"formatted_address": "12 Main St, Austin, TX",
				"formatted_phone_number": "(555) 010-0100",
				"international_phone_number": "+1 555-010-0100",
				"website": "https://ace.example",
				"rating": 4.7,
				"types": ["plumber", "point_of_interest", "establishment"],
				"opening_hours": {
					"weekday_text": ["Monday: 9:00 AM - 5:00 PM", "Tuesday: 9:00 AM - 5:00 PM"],
					"periods": [
						{"open": {"day": 1, "time": "0900"}, "close": {"day": 1, "time": "1700"}}
					]
				},
				"reviews": [
					{"author_name": "Pat", "rating": 5, "text": "Fast and friendly"}
				]
			}
		}`))
	})

	record, err := client.Details(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "p1", record.PlaceID)
	assert.Equal(t, "+1 555-010-0100", record.Phone)
	assert.Equal(t, "(555) 010-0100", record.FormattedPhone)
	assert.True(t, record.HasUsablePhone())
	assert.Equal(t, []string{"Plumber"}, record.Categories)
	assert.Contains(t, record.HoursText, "Monday: 9:00 AM - 5:00 PM")
	require.Len(t, record.OpeningHours, 1)
	assert.Equal(t, "0900", record.OpeningHours[0].Open)
	require.Len(t, record.Reviews, 1)
	assert.Equal(t, "Pat", record.Reviews[0].Author)
}

func TestClient_DetailsSinglePhoneVariantFillsBoth(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "formatted only",
			body: `{"status": "OK", "result": {"place_id": "p1", "name": "A", "formatted_phone_number": "(555) 010-0100"}}`,
		},
		{
			name: "international only",
			body: `{"status": "OK", "result": {"place_id": "p1", "name": "A", "international_phone_number": "+1 555-010-0100"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			record, err := client.Details(context.Background(), "p1")
			require.NoError(t, err)
			assert.NotEmpty(t, record.Phone)
			assert.Equal(t, record.Phone, record.FormattedPhone)
			assert.True(t, record.HasUsablePhone())
		})
	}
}

func TestClient_DetailsNoPhone(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "OK", "result": {"place_id": "p1", "name": "Quiet Cafe"}}`))
	})

	record, err := client.Details(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, record.HasUsablePhone())
}
