package http

import (
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kdidiop/participant-simulateur/internal/config"
)

// localCertificate 通過檢查的憑證存放在 Locals 的 key
const localCertificate = "clientCertificate"

// 不需要憑證與 token 的路徑
var publicPaths = []string{"/health", "/oauth/token"}

func isPublic(path string) bool {
	return slices.Contains(publicPaths, path)
}

// RequestLogger 記錄每個請求的方法、路徑、狀態碼與耗時
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// 先交給 ErrorHandler 寫入回應，才能取得正確的狀態碼
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if cert, ok := c.Locals(localCertificate).(string); ok {
			fields = append(fields, zap.String("certificate", cert))
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request", append(fields, zap.Error(err))...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
		return nil
	}
}

// MTLS 模擬用戶端憑證檢查: 未提供時視為預設測試憑證，
// 其他憑證必須包含受信任的簽發者名稱
func MTLS(cfg config.MTLSConfig, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Disabled || isPublic(c.Path()) {
			return c.Next()
		}
		cert := c.Get(cfg.Header)
		if cert == "" {
			cert = cfg.DefaultCertificate
		}
		if !trustedCertificate(cert, cfg) {
			logger.Warn("client certificate rejected", zap.String("path", c.Path()))
			return writeProblem(c, fiber.StatusForbidden, "Certificat client invalide ou non autorisé", nil)
		}
		c.Locals(localCertificate, cert)
		return c.Next()
	}
}

func trustedCertificate(cert string, cfg config.MTLSConfig) bool {
	if cert == cfg.DefaultCertificate {
		return true
	}
	for _, issuer := range cfg.TrustedIssuers {
		if strings.Contains(cert, issuer) {
			return true
		}
	}
	return false
}

// RequireScope 檢查 Bearer token 是否帶有指定 scope
func RequireScope(tokens *TokenIssuer, scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="pi-spi"`)
			return writeProblem(c, fiber.StatusUnauthorized, "Token d'authentification manquant ou invalide", nil)
		}
		scopes, valid := tokens.Lookup(token)
		if !valid {
			c.Set(fiber.HeaderWWWAuthenticate, `Bearer error="invalid_token"`)
			return writeProblem(c, fiber.StatusUnauthorized, "Token invalide ou expiré", nil)
		}
		if !slices.Contains(scopes, scope) {
			return writeProblem(c, fiber.StatusForbidden, "Permission "+scope+" requise pour accéder à cette ressource", nil)
		}
		return c.Next()
	}
}
