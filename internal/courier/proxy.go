// Package courier forwards shipping calls to the courier provider's REST API.
package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/storefront/internal/metrics"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	ErrUnknownAction    = errors.New("unknown courier action")
	ErrMissingParam     = errors.New("missing courier parameter")
	ErrTokenUnavailable = errors.New("courier token unavailable")
	ErrNotConfigured    = errors.New("courier proxy is not configured")
)

const maxResponseBytes = 10 << 20

// Request selects an action and carries its parameters.
type Request struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// Response is the downstream reply, untouched.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Config describes the provider endpoints and client credentials.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

type route struct {
	method string
	// path may hold one {param} placeholder filled from the request params
	path string
}

var routes = map[string]route{
	"rates":           {method: http.MethodPost, path: "/v1/rates"},
	"create-shipment": {method: http.MethodPost, path: "/v1/shipments"},
	"track":           {method: http.MethodGet, path: "/v1/tracking/{trackingNumber}"},
	"cancel-shipment": {method: http.MethodPost, path: "/v1/shipments/{shipmentId}/cancel"},
	"label":           {method: http.MethodGet, path: "/v1/shipments/{shipmentId}/label"},
}

// Actions lists the supported actions in name order.
func Actions() []string {
	names := make([]string, 0, len(routes))
	for name := range routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Proxy brokers provider tokens and forwards calls.
type Proxy struct {
	baseURL    string
	tokens     *TokenSource
	httpClient httpDoer
}

// New builds a Proxy. A nil cache keeps tokens in memory.
func New(cfg Config, cache TokenCache) *Proxy {
	tokens := NewTokenSource(&clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}, cache)
	return &Proxy{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetHTTPClient replaces the client used for provider calls.
func (p *Proxy) SetHTTPClient(client httpDoer) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	p.httpClient = client
	if hc, ok := client.(*http.Client); ok {
		p.tokens.client = hc
	}
}

// SetBaseURL overrides the provider API origin.
func (p *Proxy) SetBaseURL(base string) {
	p.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// Forward performs req against the provider and returns its reply verbatim.
// A 401 reply triggers one retry with a fresh token.
func (p *Proxy) Forward(ctx context.Context, req Request) (*Response, error) {
	action := strings.ToLower(strings.TrimSpace(req.Action))
	rt, ok := routes[action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	if p.baseURL == "" {
		return nil, ErrNotConfigured
	}

	endpoint, body, err := p.build(rt, req.Params)
	if err != nil {
		return nil, err
	}

	token, err := p.tokens.Token(ctx)
	if err != nil {
		p.record(action, 0)
		return nil, err
	}

	resp, err := p.send(ctx, rt.method, endpoint, body, token.AccessToken)
	if err == nil && resp.Status == http.StatusUnauthorized {
		logf("%s rejected the cached token, refreshing", action)
		token, err = p.tokens.Refresh(ctx)
		if err != nil {
			p.record(action, 0)
			return nil, err
		}
		resp, err = p.send(ctx, rt.method, endpoint, body, token.AccessToken)
	}
	if err != nil {
		p.record(action, 0)
		return nil, err
	}
	p.record(action, resp.Status)
	return resp, nil
}

func (p *Proxy) build(rt route, params map[string]any) (string, []byte, error) {
	rest := make(map[string]any, len(params))
	for k, v := range params {
		rest[k] = v
	}

	path := rt.path
	if start := strings.IndexByte(path, '{'); start >= 0 {
		end := strings.IndexByte(path, '}')
		name := path[start+1 : end]
		value := strings.TrimSpace(fmt.Sprint(rest[name]))
		if rest[name] == nil || value == "" {
			return "", nil, fmt.Errorf("%w: %s", ErrMissingParam, name)
		}
		delete(rest, name)
		path = path[:start] + url.PathEscape(value) + path[end+1:]
	}
	endpoint := p.baseURL + path

	if rt.method == http.MethodGet {
		if len(rest) > 0 {
			query := url.Values{}
			for k, v := range rest {
				query.Set(k, fmt.Sprint(v))
			}
			endpoint += "?" + query.Encode()
		}
		return endpoint, nil, nil
	}

	body, err := json.Marshal(rest)
	if err != nil {
		return "", nil, fmt.Errorf("encode courier params: %w", err)
	}
	return endpoint, body, nil
}

func (p *Proxy) send(ctx context.Context, method, endpoint string, body []byte, accessToken string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build courier request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "storefront-courier/1.0")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("调用物流接口失败: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read courier response: %w", err)
	}
	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        payload,
	}, nil
}

func (p *Proxy) record(action string, status int) {
	metrics.CourierRequests.WithLabelValues(action, metrics.StatusClass(status)).Inc()
}

func logf(format string, args ...any) {
	log.Printf("[courier] "+format, args...)
}
