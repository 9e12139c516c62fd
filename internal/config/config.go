package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
	"github.com/kdidiop/participant-simulateur/pkg/logger"
)

// Engine 複合操作的執行方式
type Engine string

const (
	// EngineMutex 單一全域鎖
	EngineMutex Engine = "mutex"
	// EngineLMAX 單一寫入者 goroutine
	EngineLMAX Engine = "lmax"
)

// DefaultPath 預設設定檔路徑
const DefaultPath = "config/config.yaml"

// DefaultScopes 模擬 token 授予的所有 scope
var DefaultScopes = []string{
	"compte.read",
	"compte_transaction.read",
	"compte_transaction.write",
	"alias.read",
	"alias.write",
	"alias.delete",
	"webhook.read",
	"webhook.write",
	"webhook.delete",
	"webhook.secret",
}

type Config struct {
	Version   string          `yaml:"version"`
	Scenario  string          `yaml:"scenario"`
	Engine    Engine          `yaml:"engine"`
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Log       logger.Config   `yaml:"log"`
	OAuth     OAuthConfig     `yaml:"oauth"`
	MTLS      MTLSConfig      `yaml:"mtls"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Snowflake SnowflakeConfig `yaml:"snowflake"`
	Journal   JournalConfig   `yaml:"journal"`
	Seed      SeedConfig      `yaml:"seed"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	BodyLimit       int           `yaml:"bodyLimit"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type GRPCConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type OAuthConfig struct {
	ClientID     string        `yaml:"clientId"`
	ClientSecret string        `yaml:"clientSecret"`
	Scopes       []string      `yaml:"scopes"`
	TokenTTL     time.Duration `yaml:"tokenTtl"`
}

type MTLSConfig struct {
	Disabled           bool     `yaml:"disabled"`
	Header             string   `yaml:"header"`
	DefaultCertificate string   `yaml:"defaultCertificate"`
	TrustedIssuers     []string `yaml:"trustedIssuers"`
}

type WebhookConfig struct {
	Max int `yaml:"max"`
}

type SnowflakeConfig struct {
	Node int64 `yaml:"node"`
}

type JournalConfig struct {
	// Path 為空時不記錄
	Path string `yaml:"path"`
	Sync bool   `yaml:"sync"`
}

type SeedConfig struct {
	// Accounts 取代預設帳戶
	Accounts []domain.Account `yaml:"accounts"`
}

// Load 讀取設定
//
// 參數:
//
//	path: YAML 設定檔，不存在時只使用預設值
//	envFiles: .env 檔案，未指定時嘗試讀取 ".env"
//
// 回傳:
//
//	Config: 套用預設值與環境變數後的設定
//	error: 讀取、解析或驗證失敗
func Load(path string, envFiles ...string) (Config, error) {
	var cfg Config

	// 1. YAML
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// 2. .env (不覆蓋已存在的環境變數)
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	// 3. 環境變數覆蓋
	applyEnv(&cfg)

	// 4. 補全預設值
	applyDefaults(&cfg)

	return cfg, cfg.Validate()
}

// Default 只有預設值的設定
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := os.LookupEnv("GRPC_ADDR"); ok && v != "" {
		cfg.GRPC.Addr = v
		cfg.GRPC.Enabled = true
	}
	if v, ok := os.LookupEnv("SCENARIO"); ok && v != "" {
		cfg.Scenario = v
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv("OAUTH_CLIENT_ID"); ok && v != "" {
		cfg.OAuth.ClientID = v
	}
	if v, ok := os.LookupEnv("OAUTH_CLIENT_SECRET"); ok && v != "" {
		cfg.OAuth.ClientSecret = v
	}
	if v, ok := os.LookupEnv("ENGINE"); ok && v != "" {
		cfg.Engine = Engine(strings.ToLower(v))
	}
	if v, ok := os.LookupEnv("JOURNAL_PATH"); ok {
		cfg.Journal.Path = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.Scenario == "" {
		cfg.Scenario = "perfectConformance"
	}
	if cfg.Engine == "" {
		cfg.Engine = EngineMutex
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":3000"
	}
	if cfg.HTTP.BodyLimit == 0 {
		cfg.HTTP.BodyLimit = 10 * 1024 * 1024
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.GRPC.Addr == "" {
		cfg.GRPC.Addr = ":50051"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.OAuth.ClientID == "" {
		cfg.OAuth.ClientID = "mock-client-id"
	}
	if cfg.OAuth.ClientSecret == "" {
		cfg.OAuth.ClientSecret = "mock-client-secret"
	}
	if len(cfg.OAuth.Scopes) == 0 {
		cfg.OAuth.Scopes = append([]string(nil), DefaultScopes...)
	}
	if cfg.OAuth.TokenTTL == 0 {
		cfg.OAuth.TokenTTL = time.Hour
	}
	if cfg.MTLS.Header == "" {
		cfg.MTLS.Header = "x-client-certificate"
	}
	if cfg.MTLS.DefaultCertificate == "" {
		cfg.MTLS.DefaultCertificate = "BCEAO-TEST-CERT"
	}
	if len(cfg.MTLS.TrustedIssuers) == 0 {
		cfg.MTLS.TrustedIssuers = []string{"BCEAO", "PI-SPI"}
	}
	if cfg.Webhook.Max == 0 {
		cfg.Webhook.Max = domain.MaxWebhooks
	}
}

// Validate 檢查設定值範圍
func (c Config) Validate() error {
	switch c.Engine {
	case EngineMutex, EngineLMAX:
	default:
		return fmt.Errorf("invalid engine %q: must be %q or %q", c.Engine, EngineMutex, EngineLMAX)
	}
	if c.Snowflake.Node < 0 || c.Snowflake.Node > 1023 {
		return fmt.Errorf("invalid snowflake node %d: must be within [0, 1023]", c.Snowflake.Node)
	}
	if c.Webhook.Max < 0 {
		return fmt.Errorf("invalid webhook max %d", c.Webhook.Max)
	}
	for _, a := range c.Seed.Accounts {
		if !domain.IsValidAccountNumber(a.Number) {
			return fmt.Errorf("invalid seed account number %q", a.Number)
		}
		if a.Balance < 0 {
			return fmt.Errorf("invalid seed balance for %s: %d", a.Number, a.Balance)
		}
	}
	return nil
}
