package courier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultTokenKey is the Redis key of the cached access token.
	DefaultTokenKey = "courier:token"
	// tokens are refreshed this long before they expire
	defaultExpirySkew = 60 * time.Second
	// used when the provider omits expires_in
	defaultTokenTTL = 55 * time.Minute
)

// ErrCacheMiss is returned by a TokenCache without a stored token.
var ErrCacheMiss = errors.New("courier token not cached")

// TokenCache stores the current provider access token.
type TokenCache interface {
	Get(ctx context.Context) (*oauth2.Token, error)
	Set(ctx context.Context, token *oauth2.Token) error
	Delete(ctx context.Context) error
}

// MemoryCache keeps the token in process memory.
type MemoryCache struct {
	mu    sync.Mutex
	token *oauth2.Token
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (m *MemoryCache) Get(context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil, ErrCacheMiss
	}
	copied := *m.token
	return &copied, nil
}

func (m *MemoryCache) Set(_ context.Context, token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *token
	m.token = &copied
	return nil
}

func (m *MemoryCache) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return nil
}

// RedisCache shares the token between instances. Entries expire with the token.
type RedisCache struct {
	client *redis.Client
	key    string
	skew   time.Duration
}

// NewRedisCache stores the token under DefaultTokenKey.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, key: DefaultTokenKey, skew: defaultExpirySkew}
}

func (r *RedisCache) Get(ctx context.Context) (*oauth2.Token, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cached token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("decode cached token: %w", err)
	}
	return &token, nil
}

func (r *RedisCache) Set(ctx context.Context, token *oauth2.Token) error {
	ttl := defaultTokenTTL
	if !token.Expiry.IsZero() {
		ttl = time.Until(token.Expiry) - r.skew
	}
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return r.client.Set(ctx, r.key, raw, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

// TokenSource hands out client-credentials tokens, reusing the cached one until it nears expiry.
type TokenSource struct {
	config *clientcredentials.Config
	cache  TokenCache
	skew   time.Duration
	client *http.Client
	now    func() time.Time
	mu     sync.Mutex
}

// NewTokenSource returns a TokenSource for config backed by cache.
func NewTokenSource(config *clientcredentials.Config, cache TokenCache) *TokenSource {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &TokenSource{config: config, cache: cache, skew: defaultExpirySkew, now: time.Now}
}

// Token returns a usable access token, fetching a new one when the cached one is missing or stale.
func (t *TokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	if token, ok := t.cached(ctx); ok {
		return token, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// another caller may have refreshed while we waited
	if token, ok := t.cached(ctx); ok {
		return token, nil
	}
	return t.fetch(ctx)
}

// Refresh discards the cached token and fetches a new one.
func (t *TokenSource) Refresh(ctx context.Context) (*oauth2.Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.cache.Delete(ctx); err != nil {
		return nil, fmt.Errorf("invalidate cached token: %w", err)
	}
	return t.fetch(ctx)
}

func (t *TokenSource) cached(ctx context.Context) (*oauth2.Token, bool) {
	token, err := t.cache.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logf("token cache read failed: %v", err)
		}
		return nil, false
	}
	if token.AccessToken == "" {
		return nil, false
	}
	if !token.Expiry.IsZero() && !token.Expiry.Add(-t.skew).After(t.now()) {
		return nil, false
	}
	return token, true
}

func (t *TokenSource) fetch(ctx context.Context) (*oauth2.Token, error) {
	if t.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, t.client)
	}
	token, err := t.config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}
	if err := t.cache.Set(ctx, token); err != nil {
		logf("token cache write failed: %v", err)
	}
	return token, nil
}
