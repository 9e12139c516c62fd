package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kdidiop/participant-simulateur/internal/app/core/adapter/out/memory"
	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
	"github.com/kdidiop/participant-simulateur/internal/app/core/usecase"
	"github.com/kdidiop/participant-simulateur/internal/config"
	"github.com/kdidiop/participant-simulateur/pkg/txid"
)

var testNow = time.Date(2025, 5, 20, 8, 30, 0, 0, time.UTC)

const bearer = "Bearer mock-token-test"

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	for _, m := range mutate {
		m(&cfg)
	}

	ids, err := txid.NewGenerator(1)
	require.NoError(t, err)
	seed := memory.DefaultSeed(testNow, nil)
	exec := memory.NewMutexExecutor()
	svc := usecase.NewAccountService(
		memory.NewAccountStore(seed.Accounts),
		memory.NewAliasStore(seed.Aliases),
		memory.NewTransactionStore(ids, seed.Transactions),
		exec,
	)
	core := usecase.NewCoreUseCase(svc, zap.NewNop())
	hooks := usecase.NewWebhookUseCase(memory.NewWebhookStore(), exec, zap.NewNop(), cfg.Webhook.Max)
	return NewServer(cfg, core, hooks, zap.NewNop(), WithClock(func() time.Time { return testNow }))
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func call(t *testing.T, s *Server, method, path string, body any, headers ...string) response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer)
	for i := 0; i+1 < len(headers); i += 2 {
		if headers[i+1] == "" {
			req.Header.Del(headers[i])
			continue
		}
		req.Header.Set(headers[i], headers[i+1])
	}

	res, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer func() { require.NoError(t, res.Body.Close()) }()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return response{status: res.StatusCode, header: res.Header, body: raw}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res := call(t, s, http.MethodGet, "/health", nil, "Authorization", "", "x-client-certificate", "UNTRUSTED")
	require.Equal(t, http.StatusOK, res.status)

	var body HealthResponse
	res.decode(t, &body)
	assert.Equal(t, "OK", body.Status)
	assert.Equal(t, "1.0.0", body.Version)
	assert.Equal(t, "perfectConformance", body.Scenario)
	assert.True(t, testNow.Equal(body.Timestamp))
}

func TestGetAccount(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res := call(t, s, http.MethodGet, "/comptes/"+memory.AccountPrimary, nil)
	require.Equal(t, http.StatusOK, res.status)
	var account map[string]any
	res.decode(t, &account)
	assert.Equal(t, memory.AccountPrimary, account["numero"])
	assert.EqualValues(t, 1_500_000, account["solde"])
	assert.Equal(t, "XOF", account["devise"])
	assert.Contains(t, account, "dateConsultation")
}

func TestGetAccount_Problems(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res := call(t, s, http.MethodGet, "/comptes/CIC0000000000", nil)
	require.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, problemContentType, res.header.Get("Content-Type"))
	var problem Problem
	res.decode(t, &problem)
	assert.Equal(t, "about:blank", problem.Type)
	assert.Equal(t, "Not Found", problem.Title)
	require.Len(t, problem.InvalidParams, 1)
	assert.Equal(t, "numero", problem.InvalidParams[0].Field)

	res = call(t, s, http.MethodGet, "/comptes/ABC", nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestCreateTransaction(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res := call(t, s, http.MethodPost, "/comptes/transactions", map[string]any{
		"compteDebiteur":  memory.AccountPrimary,
		"compteCrediteur": memory.AccountSecondary,
		"montant":         25000,
	})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	var tx domain.Transaction
	res.decode(t, &tx)
	assert.True(t, strings.HasPrefix(tx.TxID, txid.Prefix))
	assert.Equal(t, domain.TransactionStatusInitiated, tx.Status)
	assert.Equal(t, domain.DefaultMotif, tx.Motif)
	assert.Equal(t, int64(25000), tx.Amount)
}

func TestCreateTransaction_Problems(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
		params []string
	}{
		{
			name:   "every violation",
			body:   map[string]any{"compteDebiteur": "BAD", "compteCrediteur": "BAD2", "montant": -5, "motif": strings.Repeat("x", 200)},
			status: http.StatusBadRequest,
			params: []string{"compteDebiteur", "compteCrediteur", "montant", "motif"},
		},
		{
			name:   "decimal amount",
			body:   `{"compteDebiteur":"CIC2344256727788288822","compteCrediteur":"CIC2344256727788288823","montant":10.5}`,
			status: http.StatusBadRequest,
			params: []string{"montant"},
		},
		{
			name:   "insufficient funds",
			body:   map[string]any{"compteDebiteur": memory.AccountInsufficient, "compteCrediteur": memory.AccountPrimary, "montant": 60000},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown credit account",
			body:   map[string]any{"compteDebiteur": memory.AccountPrimary, "compteCrediteur": "CIC0000000000", "montant": 1},
			status: http.StatusNotFound,
			params: []string{"compteCrediteur"},
		},
		{
			name:   "malformed json",
			body:   `{"compteDebiteur":`,
			status: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, s, http.MethodPost, "/comptes/transactions", tt.body)
			require.Equal(t, tt.status, res.status, string(res.body))
			var problem Problem
			res.decode(t, &problem)
			names := make([]string, 0, len(problem.InvalidParams))
			for _, p := range problem.InvalidParams {
				names = append(names, p.Field)
			}
			if tt.params != nil {
				assert.Equal(t, tt.params, names)
			}
		})
	}
}

func TestCreateTransaction_AmountAsString(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res := call(t, s, http.MethodPost, "/comptes/transactions",
		`{"compteDebiteur":"CIC8888888888888888888","compteCrediteur":"CIC2344256727788288822","montant":"50000"}`)
	assert.Equal(t, http.StatusOK, res.status, string(res.body))
}

func TestListTransactions(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res := call(t, s, http.MethodGet, "/comptes/transactions?page=1&size=1", nil)
	require.Equal(t, http.StatusOK, res.status)
	var page struct {
		Data []domain.Transaction `json:"data"`
		Meta map[string]any       `json:"meta"`
	}
	res.decode(t, &page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "TXN002", page.Data[0].TxID)
	assert.EqualValues(t, 2, page.Meta["total"])
	assert.EqualValues(t, 2, page.Meta["next"])
	_, hasPrev := page.Meta["prev"]
	assert.False(t, hasPrev, "prev must be omitted on the first page")
	assert.NotContains(t, string(res.body), `"prev"`)

	res = call(t, s, http.MethodGet, "/comptes/transactions?page=abc&size=0", nil)
	require.Equal(t, http.StatusOK, res.status)
	res.decode(t, &page)
	assert.EqualValues(t, 1, page.Meta["page"])
	assert.EqualValues(t, 20, page.Meta["size"])

	res = call(t, s, http.MethodGet, "/comptes/transactions?size=500", nil)
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = call(t, s, http.MethodGet, "/comptes/transactions?statut=IRREVOCABLE", nil)
	require.Equal(t, http.StatusOK, res.status)
	res.decode(t, &page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "TXN001", page.Data[0].TxID)
}

func TestAliasLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	base := "/comptes/" + memory.AccountNoAlias + "/alias"

	res := call(t, s, http.MethodPost, base, map[string]string{"type": "SHID"})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var alias domain.Alias
	res.decode(t, &alias)
	assert.True(t, domain.IsValidAliasKey(alias.Key))

	res = call(t, s, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, res.status)
	var aliases []domain.Alias
	res.decode(t, &aliases)
	require.Len(t, aliases, 1)

	res = call(t, s, http.MethodDelete, base+"/"+alias.Key, nil)
	assert.Equal(t, http.StatusNoContent, res.status)

	res = call(t, s, http.MethodDelete, base+"/"+alias.Key, nil)
	require.Equal(t, http.StatusNotFound, res.status)
	var problem Problem
	res.decode(t, &problem)
	require.Len(t, problem.InvalidParams, 1)
	assert.Equal(t, "cle", problem.InvalidParams[0].Field)
}

func TestCreateAlias_Problems(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res := call(t, s, http.MethodPost, "/comptes/"+memory.AccountAliasFull+"/alias", map[string]string{"type": "SHID"})
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = call(t, s, http.MethodPost, "/comptes/CIC0000000000/alias", map[string]string{"type": "SHID"})
	assert.Equal(t, http.StatusNotFound, res.status)

	res = call(t, s, http.MethodPost, "/comptes/"+memory.AccountNoAlias+"/alias", map[string]string{"type": "IBAN"})
	require.Equal(t, http.StatusBadRequest, res.status)
	var problem Problem
	res.decode(t, &problem)
	assert.Equal(t, "Type d'alias invalide: IBAN. Types autorisés: SHID, MCOD", problem.Detail)
}

func TestMTLS(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	path := "/comptes/" + memory.AccountPrimary

	assert.Equal(t, http.StatusOK, call(t, s, http.MethodGet, path, nil).status)
	assert.Equal(t, http.StatusOK, call(t, s, http.MethodGet, path, nil, "x-client-certificate", "CN=PI-SPI-PARTICIPANT").status)
	assert.Equal(t, http.StatusForbidden, call(t, s, http.MethodGet, path, nil, "x-client-certificate", "CN=evil").status)

	disabled := newTestServer(t, func(c *config.Config) { c.MTLS.Disabled = true })
	assert.Equal(t, http.StatusOK, call(t, disabled, http.MethodGet, path, nil, "x-client-certificate", "CN=evil").status)
}

func TestOAuthScopes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *config.Config) {
		c.OAuth.Scopes = []string{"compte.read"}
	})
	path := "/comptes/" + memory.AccountPrimary

	res := call(t, s, http.MethodGet, path, nil, "Authorization", "")
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.NotEmpty(t, res.header.Get("WWW-Authenticate"))

	assert.Equal(t, http.StatusUnauthorized, call(t, s, http.MethodGet, path, nil, "Authorization", "Bearer real-jwt").status)
	assert.Equal(t, http.StatusOK, call(t, s, http.MethodGet, path, nil).status)
	assert.Equal(t, http.StatusForbidden, call(t, s, http.MethodGet, path+"/alias", nil).status)
}

func TestTokenEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res := call(t, s, http.MethodPost, "/oauth/token", map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     "mock-client-id",
		"client_secret": "mock-client-secret",
		"scope":         "compte.read",
	}, "Authorization", "")
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	var token TokenResponse
	res.decode(t, &token)
	assert.True(t, strings.HasPrefix(token.AccessToken, TokenPrefix))
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)
	assert.Equal(t, "compte.read", token.Scope)

	// 申請的 scope 之外的操作被拒絕
	auth := "Bearer " + token.AccessToken
	assert.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/comptes/"+memory.AccountPrimary, nil, "Authorization", auth).status)
	assert.Equal(t, http.StatusForbidden, call(t, s, http.MethodGet, "/comptes/transactions", nil, "Authorization", auth).status)
}

func TestTokenEndpoint_Form(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"mock-client-id"},
		"client_secret": {"mock-client-secret"},
	}
	res := call(t, s, http.MethodPost, "/oauth/token", form.Encode(), "Content-Type", "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	var token TokenResponse
	res.decode(t, &token)
	assert.Equal(t, strings.Join(config.DefaultScopes, " "), token.Scope)
}

func TestTokenEndpoint_Problems(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"malformed json", `{"grant_type":`, http.StatusBadRequest, "invalid_request"},
		{"missing fields", map[string]string{"grant_type": "client_credentials"}, http.StatusBadRequest, "invalid_request"},
		{"grant type", map[string]string{"grant_type": "password", "client_id": "mock-client-id", "client_secret": "mock-client-secret"}, http.StatusBadRequest, "unsupported_grant_type"},
		{"bad secret", map[string]string{"grant_type": "client_credentials", "client_id": "mock-client-id", "client_secret": "nope"}, http.StatusUnauthorized, "invalid_client"},
		{"bad scope", map[string]string{"grant_type": "client_credentials", "client_id": "mock-client-id", "client_secret": "mock-client-secret", "scope": "admin"}, http.StatusBadRequest, "invalid_scope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, s, http.MethodPost, "/oauth/token", tt.body, "Authorization", "")
			assert.Equal(t, tt.status, res.status)
			var oerr OAuthError
			res.decode(t, &oerr)
			assert.Equal(t, tt.code, oerr.Error)
			assert.NotEmpty(t, oerr.ErrorDescription)
		})
	}
}

func TestTokenIssuer_Expiry(t *testing.T) {
	t.Parallel()
	now := testNow
	cfg := config.OAuthConfig{Scopes: []string{"compte.read", "alias.write"}, TokenTTL: time.Minute}
	issuer := NewTokenIssuer(cfg, func() time.Time { return now })

	token, granted := issuer.Issue([]string{"compte.read"})
	assert.Equal(t, []string{"compte.read"}, granted)
	assert.True(t, strings.HasPrefix(token, IssuedTokenPrefix))
	scopes, ok := issuer.Lookup(token)
	assert.True(t, ok)
	assert.Equal(t, []string{"compte.read"}, scopes)

	// 過期後每次查詢都無效，不會退回「未知 token」拿到全部 scope
	now = now.Add(2 * time.Minute)
	for i := 0; i < 2; i++ {
		scopes, ok = issuer.Lookup(token)
		assert.False(t, ok, "lookup %d after expiry", i+1)
		assert.Nil(t, scopes)
	}

	// 下一次發放會清掉過期的 grant，舊 token 仍然無效
	fresh, _ := issuer.Issue(nil)
	issuer.mu.RLock()
	assert.Len(t, issuer.grants, 1)
	issuer.mu.RUnlock()
	_, ok = issuer.Lookup(token)
	assert.False(t, ok)
	_, ok = issuer.Lookup(fresh)
	assert.True(t, ok)
}

func TestTokenIssuer_UnknownTokens(t *testing.T) {
	t.Parallel()
	cfg := config.OAuthConfig{Scopes: []string{"compte.read"}, TokenTTL: time.Minute}
	issuer := NewTokenIssuer(cfg, nil)

	scopes, ok := issuer.Lookup("mock-token-anything")
	assert.True(t, ok)
	assert.Equal(t, cfg.Scopes, scopes)

	_, ok = issuer.Lookup(IssuedTokenPrefix + "never-issued")
	assert.False(t, ok)

	_, ok = issuer.Lookup("real-jwt")
	assert.False(t, ok)
}

func TestWebhookRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res := call(t, s, http.MethodPost, "/webhooks", map[string]any{
		"callbackUrl": "https://participant.example/hook",
		"events":      []string{"PAIEMENT_RECU"},
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var hook domain.Webhook
	res.decode(t, &hook)
	assert.Len(t, hook.Secret, 64)

	res = call(t, s, http.MethodGet, "/webhooks/"+hook.ID, nil)
	assert.Equal(t, http.StatusOK, res.status)

	res = call(t, s, http.MethodPut, "/webhooks/"+hook.ID, map[string]any{
		"callbackUrl": "https://participant.example/v2",
		"events":      []string{"RETOUR_RECU", "RTP_RECU"},
	})
	require.Equal(t, http.StatusOK, res.status)
	res.decode(t, &hook)
	assert.Equal(t, "https://participant.example/v2", hook.CallbackURL)
	require.NotNil(t, hook.UpdatedAt)

	res = call(t, s, http.MethodPost, "/webhooks/"+hook.ID+"/secrets", nil)
	require.Equal(t, http.StatusOK, res.status)
	var secret map[string]string
	res.decode(t, &secret)
	assert.Len(t, secret["secret"], 64)

	assert.Equal(t, http.StatusNoContent, call(t, s, http.MethodDelete, "/webhooks/"+hook.ID, nil).status)

	res = call(t, s, http.MethodGet, "/webhooks/"+hook.ID, nil)
	require.Equal(t, http.StatusNotFound, res.status)
	var problem Problem
	res.decode(t, &problem)
	assert.Equal(t, "https://developers.pi-bceao.com/problems/404", problem.Type)
}

func TestWebhookRoutes_Problems(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *config.Config) { c.Webhook.Max = 1 })

	res := call(t, s, http.MethodPost, "/webhooks", map[string]any{"callbackUrl": "nope"})
	require.Equal(t, http.StatusBadRequest, res.status)
	var problem Problem
	res.decode(t, &problem)
	assert.Len(t, problem.InvalidParams, 2)

	assert.Equal(t, http.StatusBadRequest, call(t, s, http.MethodGet, "/webhooks/not-a-uuid", nil).status)

	valid := map[string]any{"callbackUrl": "https://a.example", "events": []string{"RTP_RECU"}}
	assert.Equal(t, http.StatusCreated, call(t, s, http.MethodPost, "/webhooks", valid).status)
	assert.Equal(t, http.StatusBadRequest, call(t, s, http.MethodPost, "/webhooks", valid).status)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res := call(t, s, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}
