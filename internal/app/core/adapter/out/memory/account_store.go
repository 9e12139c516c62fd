package memory

import (
	"context"
	"sync"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
	"github.com/kdidiop/participant-simulateur/internal/app/core/usecase"
)

// AccountStore 記憶體帳戶表，啟動時載入後唯讀
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	// 保留載入順序
	order []string
}

// NewAccountStore 建立帳戶表，重複的帳號以後者為準
func NewAccountStore(accounts []domain.Account) *AccountStore {
	s := &AccountStore{
		accounts: make(map[string]domain.Account, len(accounts)),
		order:    make([]string, 0, len(accounts)),
	}
	for _, a := range accounts {
		if _, exists := s.accounts[a.Number]; !exists {
			s.order = append(s.order, a.Number)
		}
		s.accounts[a.Number] = domain.NewAccount(a.Number, a.Balance, a.Currency)
	}
	return s
}

// FindByNumber 回傳帳戶副本
func (s *AccountStore) FindByNumber(ctx context.Context, number string) (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[number]
	return account, ok
}

// All 依載入順序回傳所有帳戶
func (s *AccountStore) All(ctx context.Context) []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Account, 0, len(s.order))
	for _, number := range s.order {
		out = append(out, s.accounts[number])
	}
	return out
}

var _ usecase.AccountStore = (*AccountStore)(nil)
