package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionSubjectKey = "admin_sub"
	claimsContextKey  = "claims"
)

var (
	errTokenMissing    = errors.New("missing bearer token")
	errAuthUnavailable = errors.New("token verification is not configured")
)

// Authenticator verifies HS256 access tokens issued by the identity provider.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator builds a verifier. An empty secret rejects every token; an empty issuer skips the iss check.
func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(strings.TrimSpace(secret)), issuer: strings.TrimSpace(issuer)}
}

// Verify parses raw and returns its claims. The subject claim is required.
func (a *Authenticator) Verify(raw string) (jwt.MapClaims, error) {
	if len(a.secret) == 0 {
		return nil, errAuthUnavailable
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errTokenMissing
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || token == nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func bearerToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthRequired admits requests with an admin session or a valid bearer token.
// The caller's subject is stored under "claims" for the rate limiter.
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if sub, ok := session.Get(sessionSubjectKey).(string); ok && sub != "" {
			c.Set(claimsContextKey, map[string]interface{}{"sub": sub})
			c.Next()
			return
		}

		claims, err := a.auth.Verify(bearerToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(claimsContextKey, map[string]interface{}(claims))
		c.Next()
	}
}

type sessionRequest struct {
	Token string `json:"token"`
}

// Login exchanges an identity provider access token for an admin session.
func (a *API) Login(c *gin.Context) {
	var req sessionRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req, "请提供访问令牌") {
			return
		}
	}
	raw := strings.TrimSpace(req.Token)
	if raw == "" {
		raw = bearerToken(c)
	}

	claims, err := a.auth.Verify(raw)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "访问令牌无效")
		return
	}
	sub, _ := claims.GetSubject()

	session := sessions.Default(c)
	session.Set(sessionSubjectKey, sub)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "登录成功", "subject": sub})
}

// Logout clears the admin session.
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话清除失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已退出登录"})
}
