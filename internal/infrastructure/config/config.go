package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config アプリケーション全体の設定
type Config struct {
	Server        ServerConfig
	Auth          AuthConfig
	OAuth         OAuthConfig
	Ledger        LedgerConfig
	Conversion    ConversionConfig
	OpenTelemetry OpenTelemetryConfig
	Log           LogConfig
	Environment   string
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port         int
	GRPCPort     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration // SSEのため既定は無制限
	IdleTimeout  time.Duration
	PublicURL    string
}

// AuthConfig マシンアクセス用の共有シークレット設定
type AuthConfig struct {
	APIKey             string
	ServiceAccessToken string
	AdminAllowedIPs    []string // 空の場合は制限なし
}

// OAuthConfig 委任認可フロー設定
type OAuthConfig struct {
	IssuerURL string
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

// LedgerConfig 上流の台帳API設定
type LedgerConfig struct {
	APIToken string
	BudgetID string
	BaseURL  string
	Timeout  time.Duration
	Currency string
}

// ConversionConfig 為替レートAPI設定
type ConversionConfig struct {
	APIKey         string
	BaseURL        string
	TargetCurrency string
	Timeout        time.Duration
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceExporter   string // "otlp", "stdout"
	MetricsExporter string // "otlp", "stdout"
}

// LogConfig ログ設定
type LogConfig struct {
	Level string
}

// Load 設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "development")
	port := getEnvAsInt("SERVER_PORT", 8080)

	cfg := &Config{
		Environment: env,
		Server: ServerConfig{
			Port:         port,
			GRPCPort:     getEnvAsInt("GRPC_PORT", port+1),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 0),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			PublicURL:    strings.TrimRight(getEnv("PUBLIC_URL", ""), "/"),
		},
		Auth: AuthConfig{
			APIKey:             getEnv("API_KEY", ""),
			ServiceAccessToken: getEnv("SERVICE_ACCESS_TOKEN", ""),
			AdminAllowedIPs:    getEnvAsSlice("ADMIN_ALLOWED_IPS"),
		},
		OAuth: OAuthConfig{
			IssuerURL: strings.TrimRight(getEnv("OAUTH_ISSUER_URL", ""), "/"),
			JWTSecret: getEnv("OAUTH_JWT_SECRET", ""),
			JWTIssuer: getEnv("OAUTH_JWT_ISSUER", "ynab-mcp-server"),
			TokenTTL:  getEnvAsDuration("OAUTH_TOKEN_TTL", time.Hour),
		},
		Ledger: LedgerConfig{
			APIToken: getEnv("YNAB_API_TOKEN", ""),
			BudgetID: getEnv("YNAB_BUDGET_ID", ""),
			BaseURL:  strings.TrimRight(getEnv("YNAB_BASE_URL", "https://api.ynab.com/v1"), "/"),
			Timeout:  getEnvAsDuration("YNAB_TIMEOUT", 30*time.Second),
			Currency: strings.ToUpper(getEnv("LEDGER_CURRENCY", "ZAR")),
		},
		Conversion: ConversionConfig{
			APIKey:         getEnv("FREECURRENCY_API_KEY", ""),
			BaseURL:        strings.TrimRight(getEnv("FREECURRENCY_BASE_URL", "https://api.freecurrencyapi.com/v1"), "/"),
			TargetCurrency: strings.ToUpper(getEnv("CONVERSION_TARGET_CURRENCY", "ZAR")),
			Timeout:        getEnvAsDuration("FREECURRENCY_TIMEOUT", 10*time.Second),
		},
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:         getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "ynab-mcp-server"),
			ServiceVersion:  getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			OTLPInsecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			TraceExporter:   getEnv("OTEL_TRACES_EXPORTER", "otlp"),
			MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "otlp"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	// 構造的な設定のみ検証する（シークレットは利用時に検証）
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate 設定の検証
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if c.Server.GRPCPort <= 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("GRPC_PORT must be between 1 and 65535")
	}
	if c.Server.GRPCPort == c.Server.Port {
		return fmt.Errorf("GRPC_PORT must differ from SERVER_PORT")
	}
	for name, raw := range map[string]string{
		"OAUTH_ISSUER_URL":      c.OAuth.IssuerURL,
		"YNAB_BASE_URL":         c.Ledger.BaseURL,
		"FREECURRENCY_BASE_URL": c.Conversion.BaseURL,
		"PUBLIC_URL":            c.Server.PublicURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL", name)
		}
	}
	return nil
}

// MachineAccessEnabled 共有シークレットが設定されているか
func (c *AuthConfig) MachineAccessEnabled() bool {
	return c.APIKey != ""
}

// Enabled 委任認可フローが利用可能か
func (c *OAuthConfig) Enabled() bool {
	return c.IssuerURL != ""
}

// Missing 台帳ツールの登録に必要で未設定の環境変数名を返す
func (c *LedgerConfig) Missing() []string {
	var missing []string
	if c.APIToken == "" {
		missing = append(missing, "YNAB_API_TOKEN")
	}
	if c.BudgetID == "" {
		missing = append(missing, "YNAB_BUDGET_ID")
	}
	return missing
}

// Enabled 台帳ツールを登録できるか
func (c *LedgerConfig) Enabled() bool {
	return len(c.Missing()) == 0
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool 環境変数を真偽値として取得
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice カンマ区切りの環境変数をスライスとして取得
func getEnvAsSlice(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getEnvAsDuration 環境変数を時間として取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
