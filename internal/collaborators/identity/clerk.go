// internal/collaborators/identity/clerk.go

// Package identity wraps the Clerk API. Signup itself happens in Clerk's
// hosted flow; this package verifies the webhook events Clerk sends back and
// looks up user records when a session authenticates.
package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "receptionist-onboarding/internal/common/errors"
	"receptionist-onboarding/internal/common/logger"
)

const serviceName = "clerk"

// webhookTolerance bounds the accepted timestamp skew on webhook signatures.
const webhookTolerance = 5 * time.Minute

// ClerkClient talks to the Clerk backend API.
type ClerkClient struct {
	baseURL       string
	secretKey     string
	webhookSecret []byte
	httpClient    *http.Client
	logger        logger.Logger
}

// User is the subset of a Clerk user record the onboarding flow needs.
type User struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	PrimaryEmailID string `json:"primary_email_address_id"`
	EmailAddresses []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`

	// UnsafeMetadata carries the wizard session through the hosted signup
	// flow so the webhook can resume it.
	UnsafeMetadata struct {
		SessionID string `json:"sessionId"`
	} `json:"unsafe_metadata"`
}

// PrimaryEmail resolves the user's primary address, falling back to the
// first one on record.
func (u *User) PrimaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

// WebhookEvent is one verified event from Clerk. Data holds the raw object;
// for user.created events it is a User.
type WebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UserData decodes the event payload as a user record.
func (e *WebhookEvent) UserData() (*User, error) {
	var u User
	if err := json.Unmarshal(e.Data, &u); err != nil {
		return nil, fmt.Errorf("decode user data: %w", err)
	}
	return &u, nil
}

func NewClerkClient(baseURL, secretKey, webhookSecret string, log logger.Logger) *ClerkClient {
	// Clerk prefixes webhook secrets with "whsec_"; the key is the base64
	// remainder.
	seed := strings.TrimPrefix(webhookSecret, "whsec_")
	key, err := base64.StdEncoding.DecodeString(seed)
	if err != nil {
		key = []byte(seed)
	}

	return &ClerkClient{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		secretKey:     secretKey,
		webhookSecret: key,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        log.WithFields(map[string]interface{}{"component": "clerk-client"}),
	}
}

// GetUser fetches one user record by ID.
func (c *ClerkClient) GetUser(ctx context.Context, userID string) (*User, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewCollaboratorFailure(serviceName, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewCollaboratorFailure(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.NewCollaboratorFailure(serviceName,
			fmt.Errorf("clerk API returned %d: %s", resp.StatusCode, string(body)))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, apperrors.NewCollaboratorFailure(serviceName, fmt.Errorf("decode user: %w", err))
	}
	return &user, nil
}

// VerifyWebhook checks the svix signature headers on a Clerk webhook request
// and returns the decoded event. The signed content is "id.timestamp.body".
func (c *ClerkClient) VerifyWebhook(body []byte, msgID, timestamp, signature string) (*WebhookEvent, error) {
	if msgID == "" || timestamp == "" || signature == "" {
		return nil, fmt.Errorf("missing webhook signature headers")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook timestamp: %w", err)
	}
	age := time.Since(time.Unix(ts, 0))
	if age > webhookTolerance || age < -webhookTolerance {
		return nil, fmt.Errorf("webhook timestamp outside tolerance")
	}

	expected := c.sign(msgID, timestamp, body)
	if !signatureListContains(signature, expected) {
		return nil, fmt.Errorf("webhook signature mismatch")
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	return &event, nil
}

func (c *ClerkClient) sign(msgID, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, c.webhookSecret)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(body)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// signatureListContains checks the space-separated signature header for a
// constant-time match against the expected value.
func signatureListContains(header, expected string) bool {
	for _, sig := range strings.Fields(header) {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return true
		}
	}
	return false
}
