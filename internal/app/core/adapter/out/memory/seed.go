package memory

import (
	"fmt"
	"time"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
)

// 測試用帳號
const (
	AccountPrimary      = "CIC2344256727788288822"
	AccountSecondary    = "CIC2344256727788288823"
	AccountAliasFull    = "CIC9999999999999999999"
	AccountInsufficient = "CIC8888888888888888888"
	AccountNoAlias      = "CIC7777777777777777777"
)

// Seed 啟動時載入的資料
type Seed struct {
	Accounts     []domain.Account     `yaml:"accounts"`
	Aliases      []domain.Alias       `yaml:"aliases"`
	Transactions []domain.Transaction `yaml:"transactions"`
}

// DefaultAccounts 預設帳戶
func DefaultAccounts() []domain.Account {
	return []domain.Account{
		domain.NewAccount(AccountPrimary, 1_500_000, domain.DefaultCurrency),
		domain.NewAccount(AccountSecondary, 750_000, domain.DefaultCurrency),
		domain.NewAccount(AccountAliasFull, 100_000, domain.DefaultCurrency),
		domain.NewAccount(AccountInsufficient, 50_000, domain.DefaultCurrency),
		domain.NewAccount(AccountNoAlias, 200_000, domain.DefaultCurrency),
	}
}

// DefaultSeed 建立預設資料，時間以 now 為基準往前推
//
// 參數:
//
//	now: 基準時間
//	accounts: 帳戶清單，nil 時使用 DefaultAccounts
//
// 回傳:
//
//	Seed: 帳戶、別名、交易；別名與交易只保留關聯帳戶存在的資料
func DefaultSeed(now time.Time, accounts []domain.Account) Seed {
	if accounts == nil {
		accounts = DefaultAccounts()
	}
	known := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		known[a.Number] = true
	}

	aliases := []domain.Alias{
		{Key: "8b1b2499-3e50-435b-b757-ac7a83d8aa7f", Type: domain.AliasTypeSHID, Account: AccountPrimary, CreatedAt: now.Add(-24 * time.Hour)},
		{Key: "9c2c3500-4f61-4c6c-a868-bd8b94e9bb8f", Type: domain.AliasTypeMCOD, Account: AccountPrimary, CreatedAt: now.Add(-48 * time.Hour)},
	}
	// 已達上限的帳戶: 20 筆，SHID/MCOD 交錯
	for i := 1; i <= domain.MaxAliasesPerAccount; i++ {
		aliasType := domain.AliasTypeSHID
		if i%2 == 0 {
			aliasType = domain.AliasTypeMCOD
		}
		aliases = append(aliases, domain.Alias{
			Key:       fmt.Sprintf("99999999-0000-4000-8000-%012d", i),
			Type:      aliasType,
			Account:   AccountAliasFull,
			CreatedAt: now.Add(-time.Duration(domain.MaxAliasesPerAccount-i+1) * 24 * time.Hour),
		})
	}

	transactions := []domain.Transaction{
		{
			TxID:          "TXN001",
			Status:        domain.TransactionStatusIrrevocable,
			CreatedAt:     now.Add(-time.Hour),
			DebitAccount:  AccountPrimary,
			CreditAccount: AccountSecondary,
			Amount:        100_000,
			Motif:         "Transfert test",
		},
		{
			TxID:          "TXN002",
			Status:        domain.TransactionStatusInitiated,
			CreatedAt:     now.Add(-30 * time.Minute),
			DebitAccount:  AccountSecondary,
			CreditAccount: AccountPrimary,
			Amount:        50_000,
			Motif:         "Paiement service",
		},
	}

	seed := Seed{Accounts: accounts}
	for _, a := range aliases {
		if known[a.Account] {
			seed.Aliases = append(seed.Aliases, a)
		}
	}
	for _, tx := range transactions {
		if known[tx.DebitAccount] && known[tx.CreditAccount] {
			seed.Transactions = append(seed.Transactions, tx)
		}
	}
	return seed
}
