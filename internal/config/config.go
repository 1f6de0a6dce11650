package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/infra/token"
)

// 起動を止めるべき設定不備
var ErrMalformedConfig = errors.New("malformed configuration")

const (
	minBcryptCost = 10
	maxBcryptCost = 31
)

// Configはアプリ全体の設定
type Config struct {
	Port     string `mapstructure:"PORT"`
	GoEnv    string `mapstructure:"GO_ENV"`
	FEURL    string `mapstructure:"FE_URL"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// DATABASE_URL があれば POSTGRES_* より優先
	DatabaseURL      string `mapstructure:"DATABASE_URL"`
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT"`
	PostgresSSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	DBMaxOpenConns   int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns   int    `mapstructure:"DB_MAX_IDLE_CONNS"`

	AccessTokenSecret  string `mapstructure:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string `mapstructure:"REFRESH_TOKEN_SECRET"`
	AccessTokenTTL     string `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL    string `mapstructure:"REFRESH_TOKEN_TTL"`

	BcryptCost int `mapstructure:"BCRYPT_COST"`
}

var keys = []string{
	"PORT", "GO_ENV", "FE_URL", "LOG_LEVEL",
	"DATABASE_URL", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_SSLMODE",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
	"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
	"BCRYPT_COST",
}

// Loadは環境変数から設定を読み込み、検証する。
// .env の読み込みは呼び出し側（godotenv）で済ませておく。
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for _, k := range keys {
		//デフォルトのないキーもUnmarshalに含める
		_ = v.BindEnv(k)
	}

	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("FE_URL", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "thiraiview")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("ACCESS_TOKEN_TTL", "1h")
	v.SetDefault("REFRESH_TOKEN_TTL", "30d")
	v.SetDefault("BCRYPT_COST", 12)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 必須チェック
func (c Config) Validate() error {
	if c.AccessTokenSecret == "" {
		return fmt.Errorf("%w: ACCESS_TOKEN_SECRET is required", ErrMalformedConfig)
	}
	if c.RefreshTokenSecret == "" {
		return fmt.Errorf("%w: REFRESH_TOKEN_SECRET is required", ErrMalformedConfig)
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return fmt.Errorf("%w: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ", ErrMalformedConfig)
	}
	if _, err := token.ParseExpiryStrict(c.AccessTokenTTL); err != nil {
		return fmt.Errorf("%w: ACCESS_TOKEN_TTL %q", ErrMalformedConfig, c.AccessTokenTTL)
	}
	if _, err := token.ParseExpiryStrict(c.RefreshTokenTTL); err != nil {
		return fmt.Errorf("%w: REFRESH_TOKEN_TTL %q", ErrMalformedConfig, c.RefreshTokenTTL)
	}
	if c.BcryptCost < minBcryptCost || c.BcryptCost > maxBcryptCost {
		return fmt.Errorf("%w: BCRYPT_COST must be between %d and %d", ErrMalformedConfig, minBcryptCost, maxBcryptCost)
	}
	if c.DatabaseURL == "" && (c.PostgresHost == "" || c.PostgresDB == "") {
		return fmt.Errorf("%w: DATABASE_URL or POSTGRES_HOST/POSTGRES_DB is required", ErrMalformedConfig)
	}
	return nil
}

func (c Config) IsProduction() bool {
	env := strings.ToLower(c.GoEnv)
	return env == "production" || env == "prod"
}

func (c Config) AccessTTL() time.Duration {
	return token.ParseExpiry(c.AccessTokenTTL, token.DefaultAccessExpiry)
}

func (c Config) RefreshTTL() time.Duration {
	return token.ParseExpiry(c.RefreshTokenTTL, token.DefaultRefreshExpiry)
}

// DSN は postgres:// 形式の接続文字列を返す（GORMとmigrateの両方で使う）。
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   c.PostgresHost + ":" + c.PostgresPort,
		Path:   "/" + c.PostgresDB,
	}
	q := url.Values{}
	q.Set("sslmode", c.PostgresSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
