package usecase

import (
	"context"
	"fmt"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
)

// AccountService 帳戶領域服務，協調帳戶、別名、交易三個儲存
type AccountService struct {
	accounts     AccountStore
	aliases      AliasStore
	transactions TransactionStore
	executor     Executor
}

// NewAccountService 建立領域服務
//
// 參數:
//
//	accounts: 帳戶儲存
//	aliases: 別名儲存
//	transactions: 交易儲存
//	executor: 複合操作的執行器
//
// 回傳:
//
//	*AccountService: 服務實例
func NewAccountService(accounts AccountStore, aliases AliasStore, transactions TransactionStore, executor Executor) *AccountService {
	return &AccountService{
		accounts:     accounts,
		aliases:      aliases,
		transactions: transactions,
		executor:     executor,
	}
}

// GetAccount 查詢帳戶，不做格式驗證
func (s *AccountService) GetAccount(ctx context.Context, number string) (domain.Account, bool) {
	return s.accounts.FindByNumber(ctx, number)
}

// GetTransactions 查詢交易
func (s *AccountService) GetTransactions(ctx context.Context, filter domain.TransactionFilter) domain.TransactionPage {
	return s.transactions.Query(ctx, filter)
}

// CreateTransaction 建立轉帳紀錄，不會異動餘額
//
// 參數:
//
//	ctx: 上下文
//	req: 轉帳請求
//
// 回傳:
//
//	domain.Transaction: 新建立的交易
//	error: ValidationFailed / NotFound / InsufficientFunds
func (s *AccountService) CreateTransaction(ctx context.Context, req domain.TransferRequest) (domain.Transaction, error) {
	// 1. 結構驗證，遇到第一個錯誤即回傳
	if result := domain.ValidateTransfer(req); !result.Valid {
		first := result.Errors[0]
		return domain.Transaction{}, domain.NewValidationError(first.Field, first.Reason)
	}

	var created domain.Transaction
	err := s.executor.Execute(ctx, func() error {
		// 2. 雙方帳戶必須存在
		debit, ok := s.accounts.FindByNumber(ctx, req.DebitAccount)
		if !ok {
			return domain.NewNotFoundError("compteDebiteur", "Compte débiteur non trouvé")
		}
		if _, ok := s.accounts.FindByNumber(ctx, req.CreditAccount); !ok {
			return domain.NewNotFoundError("compteCrediteur", "Compte créditeur non trouvé")
		}

		// 3. 餘額檢查
		if !debit.HasSufficientFunds(req.Amount) {
			return domain.NewInsufficientFundsError("Solde insuffisant")
		}

		// 4. 寫入交易
		tx, err := s.transactions.Append(ctx, req)
		if err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
		created = tx
		return nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	return created, nil
}

// GetAlias 列出帳戶的別名
func (s *AccountService) GetAlias(ctx context.Context, number string) ([]domain.Alias, error) {
	if _, ok := s.accounts.FindByNumber(ctx, number); !ok {
		return nil, accountNotFound()
	}
	return s.aliases.FindByAccount(ctx, number), nil
}

// CreateAlias 建立別名
//
// 參數:
//
//	ctx: 上下文
//	number: 帳號
//	aliasType: SHID 或 MCOD
//
// 回傳:
//
//	domain.Alias: 新別名
//	error: ValidationFailed / NotFound / CapacityExceeded
func (s *AccountService) CreateAlias(ctx context.Context, number string, aliasType domain.AliasType) (domain.Alias, error) {
	// 1. 類型檢查
	if !domain.IsValidAliasType(aliasType) {
		return domain.Alias{}, domain.NewValidationError("type", domain.InvalidAliasTypeReason(aliasType))
	}

	var created domain.Alias
	err := s.executor.Execute(ctx, func() error {
		// 2. 帳戶必須存在
		if _, ok := s.accounts.FindByNumber(ctx, number); !ok {
			return accountNotFound()
		}

		// 3. 上限檢查使用淘汰前的數量
		if s.aliases.Count(ctx, number) >= domain.MaxAliasesPerAccount {
			return domain.NewCapacityExceededError("compte", "Limite d'alias dépassée pour ce compte")
		}

		// 4. 寫入
		alias, err := s.aliases.Save(ctx, number, aliasType)
		if err != nil {
			return fmt.Errorf("save alias: %w", err)
		}
		created = alias
		return nil
	})
	if err != nil {
		return domain.Alias{}, err
	}
	return created, nil
}

// DeleteAlias 刪除別名，找不到別名回傳 false 而非錯誤
func (s *AccountService) DeleteAlias(ctx context.Context, number, key string) (bool, error) {
	var deleted bool
	err := s.executor.Execute(ctx, func() error {
		if _, ok := s.accounts.FindByNumber(ctx, number); !ok {
			return accountNotFound()
		}
		deleted = s.aliases.Delete(ctx, number, key)
		return nil
	})
	return deleted, err
}

func accountNotFound() *domain.Error {
	return domain.NewNotFoundError("numero", "Compte non trouvé")
}
