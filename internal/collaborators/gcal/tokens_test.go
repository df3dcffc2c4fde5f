package gcal

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"receptionist-onboarding/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestTokenStore(t *testing.T) (*RedisTokenStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisTokenStore(client, "onboarding", time.Hour, logger.NewNop()), mr
}

// ==========================
// Token Persistence
// ==========================

func TestRedisTokenStore_RoundTrip(t *testing.T) {
	store, _ := newTestTokenStore(t)
	ctx := context.Background()

	token := &oauth2.Token{
		AccessToken:  "ya29.test-access",
		RefreshToken: "1//refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, store.SaveToken(ctx, "sess-1", token))

	loaded, err := store.LoadToken(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, token.AccessToken, loaded.AccessToken)
	assert.Equal(t, token.RefreshToken, loaded.RefreshToken)
	assert.True(t, token.Expiry.Equal(loaded.Expiry))
}

func TestRedisTokenStore_MissingReturnsNil(t *testing.T) {
	store, _ := newTestTokenStore(t)

	loaded, err := store.LoadToken(context.Background(), "never-connected")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisTokenStore_CorruptReturnsNil(t *testing.T) {
	store, mr := newTestTokenStore(t)
	require.NoError(t, mr.Set("onboarding:gcal-token:sess-1", "{not json"))

	loaded, err := store.LoadToken(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
