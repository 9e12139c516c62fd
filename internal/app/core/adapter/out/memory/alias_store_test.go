package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
)

// sequentialKeys 產生可預期的 key
func sequentialKeys() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
	}
}

func TestAliasStore_SaveKeepsInsertionOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewAliasStore(nil, WithKeyGenerator(sequentialKeys()))

	first, err := store.Save(ctx, AccountNoAlias, domain.AliasTypeSHID)
	require.NoError(t, err)
	second, err := store.Save(ctx, AccountNoAlias, domain.AliasTypeMCOD)
	require.NoError(t, err)

	got := store.FindByAccount(ctx, AccountNoAlias)
	require.Len(t, got, 2)
	assert.Equal(t, first.Key, got[0].Key)
	assert.Equal(t, second.Key, got[1].Key)
	assert.Equal(t, AccountNoAlias, got[0].Account)
	assert.Equal(t, 2, store.Count(ctx, AccountNoAlias))
}

func TestAliasStore_SaveUsesUUIDv4ByDefault(t *testing.T) {
	t.Parallel()
	store := NewAliasStore(nil)

	alias, err := store.Save(context.Background(), AccountNoAlias, domain.AliasTypeSHID)
	require.NoError(t, err)
	assert.True(t, domain.IsValidAliasKey(alias.Key))
}

func TestAliasStore_OverflowEvictsAllButTwoOldest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewAliasStore(nil, WithKeyGenerator(sequentialKeys()))

	var keys []string
	for i := 0; i < 3; i++ {
		a, err := store.Save(ctx, AccountNoAlias, domain.AliasTypeSHID)
		require.NoError(t, err)
		keys = append(keys, a.Key)
	}
	// 其他帳戶不受影響
	other, err := store.Save(ctx, AccountPrimary, domain.AliasTypeMCOD)
	require.NoError(t, err)

	fourth, err := store.Save(ctx, AccountNoAlias, domain.AliasTypeMCOD)
	require.NoError(t, err)

	got := store.FindByAccount(ctx, AccountNoAlias)
	require.Len(t, got, 3)
	assert.Equal(t, keys[0], got[0].Key)
	assert.Equal(t, keys[1], got[1].Key)
	assert.Equal(t, fourth.Key, got[2].Key)

	others := store.FindByAccount(ctx, AccountPrimary)
	require.Len(t, others, 1)
	assert.Equal(t, other.Key, others[0].Key)
}

func TestAliasStore_OverflowFromSeededTwenty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	seed := DefaultSeed(time.Now(), nil)
	store := NewAliasStore(seed.Aliases)
	require.Equal(t, 20, store.Count(ctx, AccountAliasFull))

	_, err := store.Save(ctx, AccountAliasFull, domain.AliasTypeSHID)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Count(ctx, AccountAliasFull))
	assert.Equal(t, 2, store.Count(ctx, AccountPrimary))
}

func TestAliasStore_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewAliasStore(nil)

	alias, err := store.Save(ctx, AccountNoAlias, domain.AliasTypeSHID)
	require.NoError(t, err)

	assert.False(t, store.Delete(ctx, AccountPrimary, alias.Key), "wrong account must not match")
	assert.True(t, store.Delete(ctx, AccountNoAlias, alias.Key))
	assert.False(t, store.Delete(ctx, AccountNoAlias, alias.Key))
	assert.Empty(t, store.FindByAccount(ctx, AccountNoAlias))
}

func TestAliasStore_FindByAccountReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewAliasStore(nil)
	_, err := store.Save(ctx, AccountNoAlias, domain.AliasTypeSHID)
	require.NoError(t, err)

	got := store.FindByAccount(ctx, AccountNoAlias)
	got[0].Type = domain.AliasTypeMCOD

	assert.Equal(t, domain.AliasTypeSHID, store.FindByAccount(ctx, AccountNoAlias)[0].Type)
}
