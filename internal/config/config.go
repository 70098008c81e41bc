// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/hitoshi/templeotrunks/internal/database"
)

// セッションストアの種類
const (
	SessionStoreSQL   = "sql"
	SessionStoreRedis = "redis"
)

// dotEnvFile は起動時に読み込む任意の環境変数ファイル。
const dotEnvFile = ".env"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `validate:"required,database_url"`
	AutoMigrate bool

	// Session
	SessionStore     string        `validate:"oneof=sql redis"`
	RedisURL         string        `validate:"required_if=SessionStore redis"`
	SessionMaxAge    int           `validate:"gt=0"`
	SessionRetention time.Duration `validate:"min=0"`

	// Rate Limit
	RateLimitLogin int `validate:"min=0"` // 0の場合は制限しない

	// Server
	ServerPort string `validate:"required,numeric"`
	BaseURL    string `validate:"required,url"`

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CSRF
	CSRFProtection bool
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
// 必須環境変数の未設定や不正な値はエラーを返す。
func Load() (*Config, error) {
	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		AutoMigrate:      getEnvBool("AUTO_MIGRATE", false),
		SessionStore:     getEnvString("SESSION_STORE", SessionStoreSQL),
		RedisURL:         os.Getenv("REDIS_URL"),
		SessionMaxAge:    getEnvInt("SESSION_MAX_AGE", 86400),
		SessionRetention: getEnvDuration("SESSION_RETENTION", 0),
		RateLimitLogin:   getEnvInt("RATE_LIMIT_LOGIN", 10),
		ServerPort:       getEnvString("SERVER_PORT", "8080"),
		BaseURL:          os.Getenv("BASE_URL"),
		CookieDomain:     getEnvString("COOKIE_DOMAIN", ""),
		CSRFProtection:   getEnvBool("CSRF_PROTECTION", false),
	}
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")

	if err := newValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", describe(err))
	}

	return cfg, nil
}

// loadDotEnv は指定ファイルが存在する場合のみ読み込む。
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 登録は固定の関数のみで失敗しない
	_ = v.RegisterValidation("database_url", func(fl validator.FieldLevel) bool {
		_, _, err := database.ParseURL(fl.Field().String())
		return err == nil
	})
	return v
}

// envNames はConfigのフィールド名と環境変数名の対応。
var envNames = map[string]string{
	"DatabaseURL":      "DATABASE_URL",
	"SessionStore":     "SESSION_STORE",
	"RedisURL":         "REDIS_URL",
	"SessionMaxAge":    "SESSION_MAX_AGE",
	"SessionRetention": "SESSION_RETENTION",
	"RateLimitLogin":   "RATE_LIMIT_LOGIN",
	"ServerPort":       "SERVER_PORT",
	"BaseURL":          "BASE_URL",
}

// describe はバリデーションエラーを環境変数名で表現し直す。
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name, ok := envNames[fe.Field()]
		if !ok {
			name = fe.Field()
		}
		if fe.Tag() == "required" || fe.Tag() == "required_if" {
			msgs = append(msgs, name+" is required")
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", name, fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
