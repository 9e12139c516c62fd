package memory

import (
	"context"
	"sync"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
	"github.com/kdidiop/participant-simulateur/internal/app/core/usecase"
)

const (
	// workingSetCapacity 帳戶已有這麼多別名時，新增前先淘汰
	workingSetCapacity = 3
	// keepOnOverflow 淘汰時保留最舊的幾筆
	keepOnOverflow = 2
)

// AliasStore 記憶體別名表
//
// 注意: 儲存層自行限制每個帳戶最多 3 筆 (淘汰後保留最舊 2 筆再新增)，
// 與業務上限 20 筆並存，兩者都必須維持
type AliasStore struct {
	mu sync.RWMutex
	// 全域依插入順序排列
	aliases []domain.Alias
	opts    options
}

// NewAliasStore 建立別名表，seed 直接載入不套用淘汰規則
func NewAliasStore(seed []domain.Alias, opts ...Option) *AliasStore {
	aliases := make([]domain.Alias, len(seed))
	copy(aliases, seed)
	return &AliasStore{
		aliases: aliases,
		opts:    buildOptions(opts),
	}
}

// FindByAccount 依插入順序回傳帳戶的別名
func (s *AliasStore) FindByAccount(ctx context.Context, number string) []domain.Alias {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Alias, 0)
	for _, a := range s.aliases {
		if a.Account == number {
			out = append(out, a)
		}
	}
	return out
}

// Count 帳戶的別名數量
func (s *AliasStore) Count(ctx context.Context, number string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(number)
}

func (s *AliasStore) countLocked(number string) int {
	n := 0
	for _, a := range s.aliases {
		if a.Account == number {
			n++
		}
	}
	return n
}

// Save 建立別名
//
// 參數:
//
//	ctx: 上下文
//	number: 帳號
//	aliasType: 別名類型
//
// 回傳:
//
//	domain.Alias: 新別名
//	error: 目前不會失敗
func (s *AliasStore) Save(ctx context.Context, number string, aliasType domain.AliasType) (domain.Alias, error) {
	alias := domain.Alias{
		Key:       s.opts.newKey(),
		Type:      aliasType,
		Account:   number,
		CreatedAt: s.opts.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. 已達工作集容量: 保留其他帳戶的別名，本帳戶只留最舊兩筆
	if s.countLocked(number) >= workingSetCapacity {
		kept := make([]domain.Alias, 0, len(s.aliases))
		own := make([]domain.Alias, 0, keepOnOverflow)
		for _, a := range s.aliases {
			if a.Account != number {
				kept = append(kept, a)
				continue
			}
			if len(own) < keepOnOverflow {
				own = append(own, a)
			}
		}
		s.aliases = append(kept, own...)
	}

	// 2. 新增
	s.aliases = append(s.aliases, alias)
	return alias, nil
}

// Delete 刪除帳戶下的別名
func (s *AliasStore) Delete(ctx context.Context, number, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.aliases {
		if a.Account == number && a.Key == key {
			s.aliases = append(s.aliases[:i], s.aliases[i+1:]...)
			return true
		}
	}
	return false
}

var _ usecase.AliasStore = (*AliasStore)(nil)
