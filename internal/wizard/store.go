// internal/wizard/store.go
package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"receptionist-onboarding/internal/common/logger"
	"receptionist-onboarding/internal/models"

	"github.com/redis/go-redis/v9"
)

// Store is the persistence adapter for wizard progress. Load treats a
// missing key and malformed stored JSON the same way: no saved state, nil
// result, no error.
type Store interface {
	Save(ctx context.Context, sessionID string, data *models.StepData) error
	Load(ctx context.Context, sessionID string) (*models.StepData, error)
	Clear(ctx context.Context, sessionID string) error
}

// FinalWriter persists the finalized payload plus the legacy-compatible side
// keys in one atomic batch. Either every key is written or none is.
type FinalWriter interface {
	WriteFinal(ctx context.Context, sessionID string, payload *Payload, data *models.StepData) error
}

// RedisStore implements Store and FinalWriter on Redis, keyed per session.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration, log logger.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "wizard-store"}),
	}
}

func (s *RedisStore) stateKey(sessionID string) string {
	return fmt.Sprintf("%s:state:%s", s.prefix, sessionID)
}

func (s *RedisStore) payloadKey(sessionID string) string {
	return fmt.Sprintf("%s:payload:%s", s.prefix, sessionID)
}

// Legacy key shapes kept for downstream readers that predate the flattened
// payload: business details blob, plan scalar, category blob, full snapshot.
func (s *RedisStore) legacyKey(name, sessionID string) string {
	return fmt.Sprintf("%s:legacy:%s:%s", s.prefix, name, sessionID)
}

// Save overwrites the stored model entirely. There is no merge; the model in
// memory is the source of truth.
func (s *RedisStore) Save(ctx context.Context, sessionID string, data *models.StepData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(sessionID), raw, s.ttl).Err()
}

// Load returns the saved model, or nil when nothing usable is stored.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*models.StepData, error) {
	raw, err := s.client.Get(ctx, s.stateKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data models.StepData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		// Malformed stored state is treated as no saved state.
		s.logger.Warn("discarding unreadable wizard state", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return nil, nil
	}
	return &data, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.stateKey(sessionID)).Err()
}

// WriteFinal writes the flattened payload and every legacy key in one
// MULTI/EXEC batch so downstream readers never observe a partial set.
func (s *RedisStore) WriteFinal(ctx context.Context, sessionID string, payload *Payload, data *models.StepData) error {
	payloadRaw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	detailsRaw, err := json.Marshal(data.BusinessIdentity.Details)
	if err != nil {
		return fmt.Errorf("marshal business details: %w", err)
	}
	// The plan legacy key is a JSON-encoded string, not a bare scalar.
	planRaw, err := json.Marshal(string(data.PlanSelection))
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	categoryRaw, err := json.Marshal(data.CategorySelection)
	if err != nil {
		return fmt.Errorf("marshal category: %w", err)
	}
	snapshotRaw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.payloadKey(sessionID), payloadRaw, s.ttl)
	pipe.Set(ctx, s.legacyKey("businessDetails", sessionID), detailsRaw, s.ttl)
	pipe.Set(ctx, s.legacyKey("selectedPlan", sessionID), planRaw, s.ttl)
	pipe.Set(ctx, s.legacyKey("businessCategory", sessionID), categoryRaw, s.ttl)
	pipe.Set(ctx, s.legacyKey("onboardingData", sessionID), snapshotRaw, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("finalization write batch failed: %w", err)
	}
	return nil
}
