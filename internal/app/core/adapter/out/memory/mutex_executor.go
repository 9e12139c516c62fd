package memory

import (
	"context"
	"sync"

	"github.com/kdidiop/participant-simulateur/internal/app/core/usecase"
)

// MutexExecutor 以單一全域鎖序列化複合操作
type MutexExecutor struct {
	mu sync.Mutex
}

func NewMutexExecutor() *MutexExecutor {
	return &MutexExecutor{}
}

// Execute 取得鎖後執行 fn
//
// 參數:
//
//	ctx: 上下文，取得鎖前已取消則不執行
//	fn: 複合操作
//
// 回傳:
//
//	error: fn 的錯誤或 ctx 錯誤
func (m *MutexExecutor) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}

var _ usecase.Executor = (*MutexExecutor)(nil)
