package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/storefront/internal/config"
)

// 为本地调试签发后台管理令牌
func main() {
	subject := flag.String("sub", "admin", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	if cfg.AuthJWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET 未配置，无法签发令牌")
	}

	token, err := issue(cfg.AuthJWTSecret, cfg.AuthIssuer, *subject, *ttl, time.Now())
	if err != nil {
		log.Fatal("签发令牌失败:", err)
	}
	fmt.Println(token)
}

func issue(secret, issuer, subject string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if issuer != "" {
		claims.Issuer = issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
