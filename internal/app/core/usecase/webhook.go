package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
)

// WebhookUseCase Webhook 訂閱管理
type WebhookUseCase struct {
	store    WebhookStore
	executor Executor
	logger   *zap.Logger
	max      int
}

// NewWebhookUseCase max <= 0 時使用 domain.MaxWebhooks
func NewWebhookUseCase(store WebhookStore, executor Executor, logger *zap.Logger, max int) *WebhookUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if max <= 0 {
		max = domain.MaxWebhooks
	}
	return &WebhookUseCase{store: store, executor: executor, logger: logger, max: max}
}

// Get 查詢訂閱
func (w *WebhookUseCase) Get(ctx context.Context, id string) (domain.Webhook, error) {
	if err := checkWebhookID(id); err != nil {
		return domain.Webhook{}, err
	}
	hook, ok := w.store.Get(ctx, id)
	if !ok {
		return domain.Webhook{}, webhookNotFound()
	}
	return hook, nil
}

// Create 建立訂閱，超過上限回傳 CapacityExceeded
func (w *WebhookUseCase) Create(ctx context.Context, in domain.WebhookInput) (domain.Webhook, error) {
	if err := domain.ValidateWebhook(in).Err(); err != nil {
		return domain.Webhook{}, err
	}
	var created domain.Webhook
	err := w.executor.Execute(ctx, func() error {
		if w.store.Count(ctx) >= w.max {
			return domain.NewCapacityExceededError("webhook", fmt.Sprintf("Nombre maximum de webhooks atteint (%d)", w.max))
		}
		hook, err := w.store.Insert(ctx, in)
		if err != nil {
			return domain.NewInternalError(err)
		}
		created = hook
		return nil
	})
	if err != nil {
		return domain.Webhook{}, err
	}
	w.logger.Info("webhook created", zap.String("id", created.ID), zap.String("callbackUrl", created.CallbackURL))
	return created, nil
}

// Update 取代 callbackUrl、events、alias
func (w *WebhookUseCase) Update(ctx context.Context, id string, in domain.WebhookInput) (domain.Webhook, error) {
	if err := checkWebhookID(id); err != nil {
		return domain.Webhook{}, err
	}
	if err := domain.ValidateWebhook(in).Err(); err != nil {
		return domain.Webhook{}, err
	}
	hook, ok := w.store.Update(ctx, id, in)
	if !ok {
		return domain.Webhook{}, webhookNotFound()
	}
	w.logger.Info("webhook updated", zap.String("id", id))
	return hook, nil
}

// Delete 刪除訂閱
func (w *WebhookUseCase) Delete(ctx context.Context, id string) error {
	if err := checkWebhookID(id); err != nil {
		return err
	}
	if !w.store.Delete(ctx, id) {
		return webhookNotFound()
	}
	w.logger.Info("webhook deleted", zap.String("id", id))
	return nil
}

// RotateSecret 產生新的簽章密鑰
func (w *WebhookUseCase) RotateSecret(ctx context.Context, id string) (string, error) {
	if err := checkWebhookID(id); err != nil {
		return "", err
	}
	secret, ok, err := w.store.RotateSecret(ctx, id)
	if err != nil {
		return "", domain.NewInternalError(err)
	}
	if !ok {
		return "", webhookNotFound()
	}
	w.logger.Info("webhook secret rotated", zap.String("id", id))
	return secret, nil
}

func checkWebhookID(id string) error {
	if !domain.IsValidUUIDv4(id) {
		return domain.NewValidationError("id", "Identifiant de webhook invalide")
	}
	return nil
}

func webhookNotFound() *domain.Error {
	return domain.NewNotFoundError("id", "Webhook non trouvé")
}
