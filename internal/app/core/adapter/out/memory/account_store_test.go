package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
)

func TestAccountStore_FindByNumber(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewAccountStore(DefaultAccounts())

	account, ok := store.FindByNumber(ctx, AccountInsufficient)
	require.True(t, ok)
	assert.Equal(t, int64(50_000), account.Balance)
	assert.Equal(t, "XOF", account.Currency)

	_, ok = store.FindByNumber(ctx, "CIC0000000000")
	assert.False(t, ok)
}

func TestAccountStore_AllKeepsLoadOrderAndDefaultsCurrency(t *testing.T) {
	t.Parallel()
	store := NewAccountStore([]domain.Account{
		{Number: "CIC2", Balance: 10},
		{Number: "CIC1", Balance: 20, Currency: "EUR"},
		{Number: "CIC2", Balance: 30},
	})

	all := store.All(context.Background())
	require.Len(t, all, 2)
	assert.Equal(t, "CIC2", all[0].Number)
	assert.Equal(t, int64(30), all[0].Balance)
	assert.Equal(t, domain.DefaultCurrency, all[0].Currency)
	assert.Equal(t, "EUR", all[1].Currency)
}
