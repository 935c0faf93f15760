package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/storefront/internal/metrics"
)

func TestAuthenticatorVerify(t *testing.T) {
	auth := NewAuthenticator(testSecret, testIssuer)

	claims, err := auth.Verify(signToken(t, testSecret, adminClaims()))
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if sub, _ := claims.GetSubject(); sub != "admin-1" {
		t.Fatalf("unexpected subject %q", sub)
	}

	cases := map[string]string{
		"wrong secret": signToken(t, "other-secret", adminClaims()),
		"wrong issuer": signToken(t, testSecret, jwt.MapClaims{"sub": "admin-1", "iss": "https://evil.test", "exp": time.Now().Add(time.Hour).Unix()}),
		"expired":      signToken(t, testSecret, jwt.MapClaims{"sub": "admin-1", "iss": testIssuer, "exp": time.Now().Add(-time.Hour).Unix()}),
		"no subject":   signToken(t, testSecret, jwt.MapClaims{"iss": testIssuer, "exp": time.Now().Add(time.Hour).Unix()}),
		"garbage":      "not-a-token",
		"empty":        "",
	}
	for name, raw := range cases {
		if _, err := auth.Verify(raw); err == nil {
			t.Errorf("%s: expected verification failure", name)
		}
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, adminClaims()).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign none token: %v", err)
	}
	if _, err := auth.Verify(none); err == nil {
		t.Fatal("alg none must be rejected")
	}

	if _, err := NewAuthenticator("", "").Verify(signToken(t, testSecret, adminClaims())); err == nil {
		t.Fatal("an unconfigured authenticator rejects every token")
	}
}

func newAuthEngine(api *API) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test"))))
	r.POST("/admin/session", api.Login)
	r.DELETE("/admin/session", api.Logout)
	protected := r.Group("/admin/api", api.AuthRequired())
	protected.GET("/whoami", func(c *gin.Context) {
		claims, _ := c.Get(claimsContextKey)
		c.JSON(http.StatusOK, gin.H{"sub": claims.(map[string]interface{})["sub"]})
	})
	return r
}

func TestAuthRequiredAcceptsBearerToken(t *testing.T) {
	gdb := setupHandlerTestDB(t)
	r := newAuthEngine(newTestAPI(t, gdb, Options{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/api/whoami", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, adminClaims()))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "admin-1") {
		t.Fatalf("expected bearer access, got %d %s", w.Code, w.Body.String())
	}
}

func TestSessionLoginAndLogout(t *testing.T) {
	gdb := setupHandlerTestDB(t)
	r := newAuthEngine(newTestAPI(t, gdb, Options{}))

	w := doJSON(t, r, http.MethodPost, "/admin/session", map[string]string{"token": "bogus"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/admin/session", map[string]string{"token": signToken(t, testSecret, adminClaims())})
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/api/whoami", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "admin-1") {
		t.Fatalf("expected session access, got %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/admin/session", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("logout failed: %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/api/whoami", nil)
	for _, ck := range w.Result().Cookies() {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}

func TestRateLimitRejectsBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if sub := c.GetHeader("X-Test-Sub"); sub != "" {
			c.Set(claimsContextKey, map[string]interface{}{"sub": sub})
		}
		c.Next()
	})
	r.POST("/limited", RateLimit("test", 0.001, 1), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	before := testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("test"))

	call := func(sub string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/limited", nil)
		req.Header.Set("X-Test-Sub", sub)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := call("alice"); w.Code != http.StatusNoContent {
		t.Fatalf("first call should pass, got %d", w.Code)
	}
	w := call("alice")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected 429 with Retry-After, got %d %v", w.Code, w.Header())
	}
	if w := call("bob"); w.Code != http.StatusNoContent {
		t.Fatalf("other callers have their own bucket, got %d", w.Code)
	}
	if got := testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("test")); got != before+1 {
		t.Fatalf("expected one rejection recorded, got %v", got-before)
	}
}
