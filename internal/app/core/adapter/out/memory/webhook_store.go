package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
	"github.com/kdidiop/participant-simulateur/internal/app/core/usecase"
)

// secretBytes 簽章密鑰長度 (hex 後為 64 字元)
const secretBytes = 32

// WebhookStore 記憶體 Webhook 訂閱表
type WebhookStore struct {
	mu    sync.RWMutex
	hooks map[string]domain.Webhook
	opts  options
}

func NewWebhookStore(opts ...Option) *WebhookStore {
	return &WebhookStore{
		hooks: make(map[string]domain.Webhook),
		opts:  buildOptions(opts),
	}
}

func (s *WebhookStore) Get(ctx context.Context, id string) (domain.Webhook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hook, ok := s.hooks[id]
	return cloneWebhook(hook), ok
}

func (s *WebhookStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hooks)
}

// Insert 建立訂閱並產生 id 與密鑰
func (s *WebhookStore) Insert(ctx context.Context, in domain.WebhookInput) (domain.Webhook, error) {
	secret, err := newSecret()
	if err != nil {
		return domain.Webhook{}, err
	}
	hook := domain.Webhook{
		ID:          s.opts.newKey(),
		CallbackURL: in.CallbackURL,
		Events:      append([]domain.WebhookEvent(nil), in.Events...),
		Alias:       in.Alias,
		Secret:      secret,
		CreatedAt:   s.opts.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[hook.ID] = hook
	return cloneWebhook(hook), nil
}

// Update 取代可修改欄位並更新 dateModification
func (s *WebhookStore) Update(ctx context.Context, id string, in domain.WebhookInput) (domain.Webhook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hook, ok := s.hooks[id]
	if !ok {
		return domain.Webhook{}, false
	}
	now := s.opts.now()
	hook.CallbackURL = in.CallbackURL
	hook.Events = append([]domain.WebhookEvent(nil), in.Events...)
	hook.Alias = in.Alias
	hook.UpdatedAt = &now
	s.hooks[id] = hook
	return cloneWebhook(hook), true
}

func (s *WebhookStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hooks[id]; !ok {
		return false
	}
	delete(s.hooks, id)
	return true
}

// RotateSecret 產生新密鑰，ok 為 false 表示訂閱不存在
func (s *WebhookStore) RotateSecret(ctx context.Context, id string) (string, bool, error) {
	secret, err := newSecret()
	if err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	hook, ok := s.hooks[id]
	if !ok {
		return "", false, nil
	}
	now := s.opts.now()
	hook.Secret = secret
	hook.UpdatedAt = &now
	s.hooks[id] = hook
	return secret, true, nil
}

func newSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate webhook secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func cloneWebhook(h domain.Webhook) domain.Webhook {
	h.Events = append([]domain.WebhookEvent(nil), h.Events...)
	if h.UpdatedAt != nil {
		t := *h.UpdatedAt
		h.UpdatedAt = &t
	}
	return h
}

var _ usecase.WebhookStore = (*WebhookStore)(nil)
