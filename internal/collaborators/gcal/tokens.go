// internal/collaborators/gcal/tokens.go
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"receptionist-onboarding/internal/common/logger"
)

// TokenStore persists the exchanged OAuth token per wizard session until
// provisioning moves it onto the account. Load returns nil when the session
// never connected a calendar.
type TokenStore interface {
	SaveToken(ctx context.Context, sessionID string, token *oauth2.Token) error
	LoadToken(ctx context.Context, sessionID string) (*oauth2.Token, error)
}

// RedisTokenStore implements TokenStore next to the wizard state keys.
type RedisTokenStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisTokenStore(client *redis.Client, prefix string, ttl time.Duration, log logger.Logger) *RedisTokenStore {
	return &RedisTokenStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "gcal-token-store"}),
	}
}

func (s *RedisTokenStore) tokenKey(sessionID string) string {
	return fmt.Sprintf("%s:gcal-token:%s", s.prefix, sessionID)
}

func (s *RedisTokenStore) SaveToken(ctx context.Context, sessionID string, token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.tokenKey(sessionID), raw, s.ttl).Err()
}

func (s *RedisTokenStore) LoadToken(ctx context.Context, sessionID string) (*oauth2.Token, error) {
	raw, err := s.client.Get(ctx, s.tokenKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		s.logger.Warn("discarding unreadable calendar token", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return nil, nil
	}
	return &token, nil
}
