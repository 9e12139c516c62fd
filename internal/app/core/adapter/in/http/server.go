package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kdidiop/participant-simulateur/internal/app/core/usecase"
	"github.com/kdidiop/participant-simulateur/internal/config"
)

// Server PI-SPI 參與者 API 的 HTTP 介面
type Server struct {
	app      *fiber.App
	core     *usecase.CoreUseCase
	webhooks *usecase.WebhookUseCase
	tokens   *TokenIssuer
	cfg      config.Config
	logger   *zap.Logger
	now      func() time.Time
}

// ServerOption Server 選項
type ServerOption func(*Server)

// WithClock 替換時間來源 (health timestamp、token 到期)
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer 建立 fiber app 並註冊所有路由
//
// 參數:
//
//	cfg: 設定 (HTTP、OAuth、mTLS)
//	core: 帳戶用例
//	webhooks: Webhook 用例
//	logger: 日誌
//
// 回傳:
//
//	*Server: HTTP Server
func NewServer(cfg config.Config, core *usecase.CoreUseCase, webhooks *usecase.WebhookUseCase, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		core:     core,
		webhooks: webhooks,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tokens = NewTokenIssuer(cfg.OAuth, s.now)

	s.app = fiber.New(fiber.Config{
		AppName:               "participant-simulateur",
		BodyLimit:             cfg.HTTP.BodyLimit,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(RequestLogger(s.logger))
	s.app.Use(MTLS(s.cfg.MTLS, s.logger))

	s.app.Get("/health", s.health)
	s.app.Post("/oauth/token", TokenHandler(s.tokens, s.logger))

	comptes := s.app.Group("/comptes")
	// 固定路徑必須在 :numero 之前註冊
	comptes.Get("/transactions", RequireScope(s.tokens, "compte_transaction.read"), s.listTransactions)
	comptes.Post("/transactions", RequireScope(s.tokens, "compte_transaction.write"), s.createTransaction)
	comptes.Get("/:numero", RequireScope(s.tokens, "compte.read"), s.getAccount)
	comptes.Get("/:numero/alias", RequireScope(s.tokens, "alias.read"), s.listAliases)
	comptes.Post("/:numero/alias", RequireScope(s.tokens, "alias.write"), s.createAlias)
	comptes.Delete("/:numero/alias/:cle", RequireScope(s.tokens, "alias.delete"), s.deleteAlias)

	webhooks := s.app.Group("/webhooks")
	webhooks.Post("/", RequireScope(s.tokens, "webhook.write"), s.createWebhook)
	webhooks.Get("/:id", RequireScope(s.tokens, "webhook.read"), s.getWebhook)
	webhooks.Put("/:id", RequireScope(s.tokens, "webhook.write"), s.updateWebhook)
	webhooks.Delete("/:id", RequireScope(s.tokens, "webhook.delete"), s.deleteWebhook)
	webhooks.Post("/:id/secrets", RequireScope(s.tokens, "webhook.secret"), s.rotateWebhookSecret)
}

// HealthResponse GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Scenario  string    `json:"scenario"`
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "OK",
		Timestamp: s.now(),
		Version:   s.cfg.Version,
		Scenario:  s.cfg.Scenario,
	})
}

// App 底層 fiber app (測試使用 app.Test)
func (s *Server) App() *fiber.App {
	return s.app
}

// Tokens token 發放器
func (s *Server) Tokens() *TokenIssuer {
	return s.tokens
}

// Listen 開始監聽 (阻塞)
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown 等待處理中的請求完成後關閉
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
