package usecase

import (
	"context"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
)

// AccountStore 帳戶儲存，唯讀
type AccountStore interface {
	// FindByNumber 查詢帳戶，不存在時 ok 為 false
	FindByNumber(ctx context.Context, number string) (domain.Account, bool)
	// All 依載入順序回傳所有帳戶
	All(ctx context.Context) []domain.Account
}

// AliasStore 別名儲存
type AliasStore interface {
	// FindByAccount 依建立順序回傳帳戶的別名
	FindByAccount(ctx context.Context, number string) []domain.Alias
	// Count 帳戶目前的別名數量
	Count(ctx context.Context, number string) int
	// Save 建立別名並套用容量淘汰規則
	Save(ctx context.Context, number string, aliasType domain.AliasType) (domain.Alias, error)
	// Delete 刪除帳戶下的別名，找不到時回傳 false
	Delete(ctx context.Context, number, key string) bool
}

// TransactionStore 交易儲存，只新增不修改
type TransactionStore interface {
	// Append 指派 txId、狀態 INITIE 與建立時間，不做任何驗證
	Append(ctx context.Context, req domain.TransferRequest) (domain.Transaction, error)
	// Query 過濾、排序、分頁
	Query(ctx context.Context, filter domain.TransactionFilter) domain.TransactionPage
}

// WebhookStore Webhook 訂閱儲存
type WebhookStore interface {
	Get(ctx context.Context, id string) (domain.Webhook, bool)
	Count(ctx context.Context) int
	Insert(ctx context.Context, in domain.WebhookInput) (domain.Webhook, error)
	Update(ctx context.Context, id string, in domain.WebhookInput) (domain.Webhook, bool)
	Delete(ctx context.Context, id string) bool
	RotateSecret(ctx context.Context, id string) (string, bool, error)
}

// Executor 讓複合操作 (先查再寫) 不會與其他請求交錯
type Executor interface {
	Execute(ctx context.Context, fn func() error) error
}

// Journal 稽核紀錄，寫入失敗不影響業務結果
type Journal interface {
	Write(v any) error
}
