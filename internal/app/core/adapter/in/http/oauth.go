package http

import (
	"crypto/subtle"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kdidiop/participant-simulateur/internal/config"
)

// TokenPrefix 模擬 token 前綴
const TokenPrefix = "mock-token-"

// IssuedTokenPrefix /oauth/token 發放的 token 前綴，只有仍在 grants 中的才有效
const IssuedTokenPrefix = TokenPrefix + "cc-"

type grant struct {
	scopes    []string
	expiresAt time.Time
}

// TokenIssuer 發放與查詢模擬 token
//
// 自行發放的 token (IssuedTokenPrefix) 會到期並只帶申請的 scope，過期後永遠無效；
// 其他以 mock-token- 開頭的 token 視為有效並帶有所有設定的 scope
type TokenIssuer struct {
	mu     sync.RWMutex
	grants map[string]grant
	cfg    config.OAuthConfig
	now    func() time.Time
}

func NewTokenIssuer(cfg config.OAuthConfig, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{
		grants: make(map[string]grant),
		cfg:    cfg,
		now:    now,
	}
}

// Issue 發放 token，scopes 為空時授予所有設定的 scope
func (t *TokenIssuer) Issue(scopes []string) (string, []string) {
	if len(scopes) == 0 {
		scopes = t.cfg.Scopes
	}
	now := t.now()
	token := IssuedTokenPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()[:8]

	t.mu.Lock()
	defer t.mu.Unlock()
	// 順便清掉已過期的 grant
	for k, g := range t.grants {
		if !now.Before(g.expiresAt) {
			delete(t.grants, k)
		}
	}
	t.grants[token] = grant{scopes: append([]string(nil), scopes...), expiresAt: now.Add(t.cfg.TokenTTL)}
	return token, scopes
}

// Lookup 回傳 token 的 scope，無效或過期時 ok 為 false
func (t *TokenIssuer) Lookup(token string) ([]string, bool) {
	if !strings.HasPrefix(token, TokenPrefix) {
		return nil, false
	}
	if !strings.HasPrefix(token, IssuedTokenPrefix) {
		return t.cfg.Scopes, true
	}
	t.mu.RLock()
	g, ok := t.grants[token]
	t.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !t.now().Before(g.expiresAt) {
		t.mu.Lock()
		delete(t.grants, token)
		t.mu.Unlock()
		return nil, false
	}
	return g.scopes, true
}

// Authenticate 比對 client 帳密
func (t *TokenIssuer) Authenticate(clientID, clientSecret string) bool {
	idOK := subtle.ConstantTimeCompare([]byte(clientID), []byte(t.cfg.ClientID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(clientSecret), []byte(t.cfg.ClientSecret)) == 1
	return idOK && secretOK
}

// Allowed 檢查申請的 scope 是否都在設定範圍內
func (t *TokenIssuer) Allowed(scopes []string) bool {
	for _, s := range scopes {
		if !slices.Contains(t.cfg.Scopes, s) {
			return false
		}
	}
	return true
}

type tokenRequest struct {
	GrantType    string `json:"grant_type" form:"grant_type"`
	ClientID     string `json:"client_id" form:"client_id"`
	ClientSecret string `json:"client_secret" form:"client_secret"`
	Scope        string `json:"scope" form:"scope"`
}

// TokenResponse client_credentials 回應
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// OAuthError RFC 6749 §5.2 錯誤回應
type OAuthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func writeOAuthError(c *fiber.Ctx, status int, code, description string) error {
	return c.Status(status).JSON(OAuthError{Error: code, ErrorDescription: description})
}

// TokenHandler POST /oauth/token，接受 JSON 或 form
func TokenHandler(tokens *TokenIssuer, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req tokenRequest
		if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationForm) {
			req = tokenRequest{
				GrantType:    c.FormValue("grant_type"),
				ClientID:     c.FormValue("client_id"),
				ClientSecret: c.FormValue("client_secret"),
				Scope:        c.FormValue("scope"),
			}
		} else if len(c.Body()) > 0 {
			if err := json.Unmarshal(c.Body(), &req); err != nil {
				return writeOAuthError(c, fiber.StatusBadRequest, "invalid_request", "Corps de requête JSON invalide")
			}
		}

		// 1. 必填欄位
		if req.GrantType == "" || req.ClientID == "" || req.ClientSecret == "" {
			return writeOAuthError(c, fiber.StatusBadRequest, "invalid_request", "Les paramètres client_id, client_secret et grant_type sont obligatoires")
		}
		// 2. 只支援 client_credentials
		if req.GrantType != "client_credentials" {
			return writeOAuthError(c, fiber.StatusBadRequest, "unsupported_grant_type", "Seul le grant_type client_credentials est supporté")
		}
		// 3. 帳密
		if !tokens.Authenticate(req.ClientID, req.ClientSecret) {
			logger.Warn("oauth client rejected", zap.String("client_id", req.ClientID))
			return writeOAuthError(c, fiber.StatusUnauthorized, "invalid_client", "Identifiants client invalides")
		}
		// 4. scope
		requested := strings.Fields(req.Scope)
		if !tokens.Allowed(requested) {
			return writeOAuthError(c, fiber.StatusBadRequest, "invalid_scope", "Scope demandé non autorisé")
		}

		token, granted := tokens.Issue(requested)
		logger.Info("oauth token issued", zap.String("client_id", req.ClientID), zap.Strings("scopes", granted))
		return c.JSON(TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(tokens.cfg.TokenTTL / time.Second),
			Scope:       strings.Join(granted, " "),
		})
	}
}
