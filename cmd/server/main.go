package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/storefront/internal/config"
	"github.com/storefront/internal/courier"
	"github.com/storefront/internal/db"
	"github.com/storefront/internal/handler"
	"github.com/storefront/internal/render"
	"github.com/storefront/internal/router"
	"github.com/storefront/internal/service"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabaseDriver, cfg.DatabaseDSN); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	renderer, err := render.New(service.NewCatalogService(db.DB), render.WithFetchTimeout(cfg.BlockFetchTimeout))
	if err != nil {
		log.Fatalf("failed to parse block templates: %v", err)
	}

	opts := router.Options{
		SessionSecret:    cfg.SessionSecret,
		CourierRateLimit: cfg.Courier.RateLimit,
		API: handler.Options{
			Auth:        handler.NewAuthenticator(cfg.AuthJWTSecret, cfg.AuthIssuer),
			DeferBlocks: cfg.DeferDataBlocks,
			BaseURL:     cfg.SiteBaseURL,
		},
	}
	if cfg.Courier.Enabled() {
		opts.API.Courier = courier.New(courier.Config{
			BaseURL:      cfg.Courier.BaseURL,
			TokenURL:     cfg.Courier.TokenURL,
			ClientID:     cfg.Courier.ClientID,
			ClientSecret: cfg.Courier.ClientSecret,
		}, tokenCache(cfg.Redis))
	} else {
		log.Println("[courier] provider credentials missing; shipping proxy disabled")
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(db.DB, renderer, opts)
	log.Printf("storefront listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

// tokenCache 在 Redis 可用时通过 Redis 共享物流令牌
func tokenCache(cfg config.RedisConfig) courier.TokenCache {
	if cfg.Addr == "" {
		return courier.NewMemoryCache()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[courier] redis at %s unreachable, caching tokens in memory: %v", cfg.Addr, err)
		_ = client.Close()
		return courier.NewMemoryCache()
	}
	return courier.NewRedisCache(client)
}
