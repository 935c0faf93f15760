package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	DatabaseDriver    string
	DatabaseDSN       string
	SessionSecret     string
	GinMode           string
	SiteBaseURL       string
	AuthJWTSecret     string
	AuthIssuer        string
	BlockFetchTimeout time.Duration
	// DeferDataBlocks 为真时数据区块先输出占位，再由片段请求补全。
	DeferDataBlocks   bool
	Courier           CourierConfig
	Redis             RedisConfig
}

// CourierConfig 描述物流服务商的 OAuth 凭据与接口地址。
type CourierConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	// RateLimit 为每个管理员每秒允许的代理请求数。
	RateLimit float64
}

// Enabled 表示是否配置了可用的物流代理。
func (c CourierConfig) Enabled() bool {
	return c.BaseURL != "" && c.TokenURL != "" && c.ClientID != ""
}

// RedisConfig 为空地址时令牌缓存退回进程内存。
type RedisConfig struct {
	Addr     string
	Password string
}

var defaults = map[string]any{
	"PORT":                  "8080",
	"DATABASE_DRIVER":       "sqlite",
	"DATABASE_DSN":          "storefront.db",
	"SESSION_SECRET":        "storefront-dev-secret",
	"GIN_MODE":              "release",
	"SITE_BASE_URL":         "http://localhost:8080",
	"AUTH_ISSUER":           "",
	"AUTH_JWT_SECRET":       "",
	"BLOCK_FETCH_TIMEOUT":   "5s",
	"DEFER_DATA_BLOCKS":     false,
	"COURIER_BASE_URL":      "",
	"COURIER_TOKEN_URL":     "",
	"COURIER_CLIENT_ID":     "",
	"COURIER_CLIENT_SECRET": "",
	"COURIER_RATE_LIMIT":    2.0,
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
}

// Load 从 .env 与环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	get := func(key string) string {
		return strings.TrimSpace(v.GetString(key))
	}

	port := get("PORT")
	if port == "" {
		port = "8080"
	}

	listenAddr := get("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	driver := strings.ToLower(get("DATABASE_DRIVER"))
	if driver != "postgres" {
		driver = "sqlite"
	}

	dsn := get("DATABASE_DSN")
	if dsn == "" {
		dsn = "storefront.db"
	}

	sessionSecret := get("SESSION_SECRET")
	if sessionSecret == "" {
		sessionSecret = "storefront-dev-secret"
	}

	ginMode := strings.ToLower(get("GIN_MODE"))
	switch ginMode {
	case "debug", "test", "release":
	default:
		ginMode = "release"
	}

	fetchTimeout, err := time.ParseDuration(get("BLOCK_FETCH_TIMEOUT"))
	if err != nil || fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}

	rateLimit := v.GetFloat64("COURIER_RATE_LIMIT")
	if rateLimit <= 0 {
		rateLimit = 2
	}

	jwtSecret := get("AUTH_JWT_SECRET")
	if jwtSecret == "" {
		log.Println("[config] AUTH_JWT_SECRET is empty; admin API will reject every token")
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		DatabaseDriver:    driver,
		DatabaseDSN:       dsn,
		SessionSecret:     sessionSecret,
		GinMode:           ginMode,
		SiteBaseURL:       strings.TrimRight(get("SITE_BASE_URL"), "/"),
		AuthJWTSecret:     jwtSecret,
		AuthIssuer:        get("AUTH_ISSUER"),
		BlockFetchTimeout: fetchTimeout,
		DeferDataBlocks:   v.GetBool("DEFER_DATA_BLOCKS"),
		Courier: CourierConfig{
			BaseURL:      strings.TrimRight(get("COURIER_BASE_URL"), "/"),
			TokenURL:     get("COURIER_TOKEN_URL"),
			ClientID:     get("COURIER_CLIENT_ID"),
			ClientSecret: get("COURIER_CLIENT_SECRET"),
			RateLimit:    rateLimit,
		},
		Redis: RedisConfig{
			Addr:     get("REDIS_ADDR"),
			Password: get("REDIS_PASSWORD"),
		},
	}
}
