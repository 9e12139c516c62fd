package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
)

// CoreUseCase 對外的應用層合約，負責格式前置檢查與錯誤分類
type CoreUseCase struct {
	service *AccountService
	logger  *zap.Logger
	journal Journal
	now     func() time.Time
}

// CoreOption 設定 CoreUseCase 的選項
type CoreOption func(*CoreUseCase)

// WithJournal 成功的異動寫入稽核紀錄
func WithJournal(j Journal) CoreOption {
	return func(c *CoreUseCase) {
		c.journal = j
	}
}

// WithClock 替換時間來源 (測試用)
func WithClock(now func() time.Time) CoreOption {
	return func(c *CoreUseCase) {
		c.now = now
	}
}

func NewCoreUseCase(service *AccountService, logger *zap.Logger, opts ...CoreOption) *CoreUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CoreUseCase{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// JournalEntry 稽核紀錄的單筆資料
type JournalEntry struct {
	Event string    `json:"event"`
	At    time.Time `json:"at"`
	Data  any       `json:"data"`
}

// GetAccount 查詢帳戶，不存在時回傳 NotFound
func (c *CoreUseCase) GetAccount(ctx context.Context, number string) (domain.Account, error) {
	if err := checkAccountNumber(number); err != nil {
		return domain.Account{}, c.fail("get_account", err)
	}
	account, ok := c.service.GetAccount(ctx, number)
	if !ok {
		return domain.Account{}, c.fail("get_account", accountNotFound())
	}
	account.ConsultedAt = c.now()
	return account, nil
}

// GetTransactions 查詢交易，未設定的分頁參數套用預設值
func (c *CoreUseCase) GetTransactions(ctx context.Context, filter domain.TransactionFilter) (domain.TransactionPage, error) {
	filter = filter.WithDefaults()
	if err := filter.Validate(); err != nil {
		return domain.TransactionPage{}, c.fail("get_transactions", err)
	}
	return c.service.GetTransactions(ctx, filter), nil
}

// CreateTransaction 建立轉帳，格式錯誤時一次回報所有欄位
func (c *CoreUseCase) CreateTransaction(ctx context.Context, req domain.TransferRequest) (domain.Transaction, error) {
	req.Motif = req.MotifOrDefault()
	if err := domain.ValidateTransfer(req).Err(); err != nil {
		return domain.Transaction{}, c.fail("create_transaction", err)
	}
	tx, err := c.service.CreateTransaction(ctx, req)
	if err != nil {
		return domain.Transaction{}, c.fail("create_transaction", err)
	}
	c.record("transaction.created", tx)
	c.logger.Info("transaction created",
		zap.String("txId", tx.TxID),
		zap.String("debit", tx.DebitAccount),
		zap.String("credit", tx.CreditAccount),
		zap.Int64("amount", tx.Amount))
	return tx, nil
}

// GetAlias 列出帳戶的別名
func (c *CoreUseCase) GetAlias(ctx context.Context, number string) ([]domain.Alias, error) {
	if err := checkAccountNumber(number); err != nil {
		return nil, c.fail("get_alias", err)
	}
	aliases, err := c.service.GetAlias(ctx, number)
	if err != nil {
		return nil, c.fail("get_alias", err)
	}
	return aliases, nil
}

// CreateAlias 建立別名
func (c *CoreUseCase) CreateAlias(ctx context.Context, number string, aliasType domain.AliasType) (domain.Alias, error) {
	if err := checkAccountNumber(number); err != nil {
		return domain.Alias{}, c.fail("create_alias", err)
	}
	alias, err := c.service.CreateAlias(ctx, number, aliasType)
	if err != nil {
		return domain.Alias{}, c.fail("create_alias", err)
	}
	c.record("alias.created", alias)
	c.logger.Info("alias created", zap.String("account", number), zap.String("key", alias.Key))
	return alias, nil
}

// DeleteAlias 刪除別名，別名不存在時回傳 NotFound
func (c *CoreUseCase) DeleteAlias(ctx context.Context, number, key string) error {
	if err := checkAccountNumber(number); err != nil {
		return c.fail("delete_alias", err)
	}
	if !domain.IsValidAliasKey(key) {
		return c.fail("delete_alias", domain.NewValidationError("cle", domain.ReasonInvalidAliasKey))
	}
	deleted, err := c.service.DeleteAlias(ctx, number, key)
	if err != nil {
		return c.fail("delete_alias", err)
	}
	if !deleted {
		return c.fail("delete_alias", domain.NewNotFoundError("cle", "Alias non trouvé"))
	}
	c.record("alias.deleted", map[string]string{"compte": number, "cle": key})
	c.logger.Info("alias deleted", zap.String("account", number), zap.String("key", key))
	return nil
}

// Accounts 所有帳戶 (seed 指令與健康檢查使用)
func (c *CoreUseCase) Accounts(ctx context.Context) []domain.Account {
	return c.service.accounts.All(ctx)
}

// fail 將錯誤分類並記錄，非業務錯誤一律轉為 InternalInconsistency
func (c *CoreUseCase) fail(op string, err error) error {
	kind := domain.KindOf(err)
	if kind == domain.KindInternalInconsistency {
		c.logger.Error("operation failed", zap.String("op", op), zap.Error(err))
		var de *domain.Error
		if !errors.As(err, &de) {
			return domain.NewInternalError(err)
		}
		return err
	}
	c.logger.Debug("operation rejected", zap.String("op", op), zap.String("kind", string(kind)), zap.Error(err))
	return err
}

func (c *CoreUseCase) record(event string, data any) {
	if c.journal == nil {
		return
	}
	entry := JournalEntry{Event: event, At: c.now(), Data: data}
	if err := c.journal.Write(entry); err != nil {
		c.logger.Warn("journal write failed", zap.String("event", event), zap.Error(err))
	}
}

func checkAccountNumber(number string) error {
	if !domain.IsValidAccountNumber(number) {
		return domain.NewValidationError("numero", domain.ReasonInvalidAccountNumber)
	}
	return nil
}
