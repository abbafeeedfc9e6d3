// Package config はgatewayの起動時設定を提供する。
//
// 既定値、YAMLファイル、環境変数の順に値を上書きし、起動時に一度だけ構築する。
// 構築した Config はgateway.NewServerに渡す。
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// セッション保存先の種類。
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config はgatewayの設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `yaml:"port"`
	// BackendURL は転送先APIのベースURL（バージョンパスを含む）。
	BackendURL string `yaml:"backend_url"`
	// DiagnosticBackendURL は診断用ルートが使うAPIのベースURL。
	DiagnosticBackendURL string `yaml:"diagnostic_backend_url"`
	// ClientSecret はトークン発行時にバックエンドへ送る事前共有シークレット。
	ClientSecret string `yaml:"client_secret"`
	// FrontendURL はCORSで許可するオリジン。空の場合は許可しない。
	FrontendURL string `yaml:"frontend_url"`
	// TemplateDir はビューのテンプレートディレクトリ。空の場合は組み込みのビューを使う。
	TemplateDir string `yaml:"template_dir"`
	// Session はセッションの設定。
	Session SessionConfig `yaml:"session"`
}

// SessionConfig はセッションの保存先とCookieの設定。
type SessionConfig struct {
	// Store は保存先の種類（memory | redis | sqlite）。
	Store string `yaml:"store"`
	// Secret はセッションCookieの署名鍵。
	Secret string `yaml:"secret"`
	// CookieName はセッションCookieの名前。
	CookieName string `yaml:"cookie_name"`
	// TTL はセッションの有効期間。
	TTL time.Duration `yaml:"ttl"`
	// Secure はCookieにSecure属性を付与するかどうか。
	Secure bool `yaml:"secure"`
	// RedisAddr はRedisの接続先。
	RedisAddr string `yaml:"redis_addr"`
	// RedisPassword はRedisのパスワード。
	RedisPassword string `yaml:"redis_password"`
	// RedisPrefix はRedisキーの接頭辞。
	RedisPrefix string `yaml:"redis_prefix"`
	// SQLitePath はSQLiteデータベースのパス。
	SQLitePath string `yaml:"sqlite_path"`
}

// Default は既定値の設定を返す。
func Default() *Config {
	return &Config{
		Port:                 "8003",
		BackendURL:           "http://localhost:8002/v2",
		DiagnosticBackendURL: "http://localhost:8002/v1",
		Session: SessionConfig{
			Store:       StoreMemory,
			CookieName:  "connect.sid",
			TTL:         24 * time.Hour,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "sess",
			SQLitePath:  "/data/sessions.db",
		},
	}
}

// Load は既定値にpathのYAMLファイルと環境変数を重ねた設定を返す。
// pathが空の場合はファイルを読まない。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルのパースに失敗: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定が不正です: %w", err)
	}
	return cfg, nil
}

// applyEnv は環境変数で設定を上書きする。
func applyEnv(cfg *Config) error {
	overrides := map[string]*string{
		"PORT":                   &cfg.Port,
		"BACKEND_URL":            &cfg.BackendURL,
		"DIAGNOSTIC_BACKEND_URL": &cfg.DiagnosticBackendURL,
		"CLIENT_SECRET":          &cfg.ClientSecret,
		"FRONTEND_URL":           &cfg.FrontendURL,
		"TEMPLATE_DIR":           &cfg.TemplateDir,
		"SESSION_STORE":          &cfg.Session.Store,
		"SESSION_SECRET":         &cfg.Session.Secret,
		"SESSION_COOKIE_NAME":    &cfg.Session.CookieName,
		"REDIS_ADDR":             &cfg.Session.RedisAddr,
		"REDIS_PASSWORD":         &cfg.Session.RedisPassword,
		"REDIS_PREFIX":           &cfg.Session.RedisPrefix,
		"SESSION_SQLITE_PATH":    &cfg.Session.SQLitePath,
	}
	for key, dst := range overrides {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SESSION_TTLの形式が不正です: %w", err)
		}
		cfg.Session.TTL = ttl
	}
	if v := os.Getenv("SESSION_SECURE"); v != "" {
		cfg.Session.Secure = v == "true" || v == "1"
	}
	return nil
}

// Validate は設定値を検証する。
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("portが設定されていません"))
	}
	if c.ClientSecret == "" {
		errs = append(errs, errors.New("CLIENT_SECRETが設定されていません"))
	}
	for name, raw := range map[string]string{
		"backend_url":            c.BackendURL,
		"diagnostic_backend_url": c.DiagnosticBackendURL,
	} {
		if err := validateBaseURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%sが不正です: %w", name, err))
		}
	}

	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRETが設定されていません"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookie_nameが設定されていません"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttlは正の値である必要があります"))
	}
	switch c.Session.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Session.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDRが設定されていません"))
		}
	case StoreSQLite:
		if c.Session.SQLitePath == "" {
			errs = append(errs, errors.New("SESSION_SQLITE_PATHが設定されていません"))
		}
	default:
		errs = append(errs, fmt.Errorf("未知のセッション保存先です: %q", c.Session.Store))
	}

	return errors.Join(errs...)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("スキームはhttpまたはhttpsである必要があります: %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("ホストがありません: %q", raw)
	}
	return nil
}
