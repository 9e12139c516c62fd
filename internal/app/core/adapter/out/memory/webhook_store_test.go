package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
)

func TestWebhookStore_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := now
	store := NewWebhookStore(WithClock(func() time.Time { return clock }))

	hook, err := store.Insert(ctx, domain.WebhookInput{
		CallbackURL: "https://example.org/hook",
		Events:      []domain.WebhookEvent{domain.EventPaymentReceived},
	})
	require.NoError(t, err)
	assert.True(t, domain.IsValidUUIDv4(hook.ID))
	assert.Len(t, hook.Secret, 64)
	assert.Equal(t, now, hook.CreatedAt)
	assert.Nil(t, hook.UpdatedAt)
	assert.Equal(t, 1, store.Count(ctx))

	clock = now.Add(time.Hour)
	updated, ok := store.Update(ctx, hook.ID, domain.WebhookInput{
		CallbackURL: "https://example.org/v2",
		Events:      []domain.WebhookEvent{domain.EventReturnReceived},
		Alias:       "8b1b2499-3e50-435b-b757-ac7a83d8aa7f",
	})
	require.True(t, ok)
	assert.Equal(t, "https://example.org/v2", updated.CallbackURL)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, clock, *updated.UpdatedAt)
	assert.Equal(t, hook.Secret, updated.Secret)

	secret, ok, err := store.RotateSecret(ctx, hook.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, hook.Secret, secret)

	got, ok := store.Get(ctx, hook.ID)
	require.True(t, ok)
	assert.Equal(t, secret, got.Secret)

	assert.True(t, store.Delete(ctx, hook.ID))
	assert.False(t, store.Delete(ctx, hook.ID))
	_, ok = store.Get(ctx, hook.ID)
	assert.False(t, ok)
}

func TestWebhookStore_UnknownID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewWebhookStore()

	_, ok := store.Update(ctx, "missing", domain.WebhookInput{})
	assert.False(t, ok)
	_, ok, err := store.RotateSecret(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
