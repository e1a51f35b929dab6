package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/outbound-messaging-backend/internal/platform/ctxutil"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
	"github.com/yungbote/outbound-messaging-backend/internal/services"
)

const (
	headerFlexJWE = "X-Flex-JWE"
	maxTokenPeek  = 1 << 20
)

type AuthMiddleware struct {
	log       *logger.Logger
	validator services.TokenValidator
}

// NewAuthMiddleware returns nil when validator is nil, which leaves routes
// open (AUTH_MODE=none).
func NewAuthMiddleware(log *logger.Logger, validator services.TokenValidator) *AuthMiddleware {
	if validator == nil {
		return nil
	}
	return &AuthMiddleware{log: log.With("Middleware", "AuthMiddleware"), validator: validator}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing token", "code": "unauthorized"},
			})
			return
		}
		id, err := am.validator.Validate(c.Request.Context(), token)
		if err != nil {
			status, code := http.StatusUnauthorized, "unauthorized"
			if !errors.Is(err, services.ErrTokenInvalid) && !errors.Is(err, services.ErrTokenExpired) && !errors.Is(err, services.ErrTokenMissing) {
				status, code = http.StatusBadGateway, "token_validation_failed"
			}
			am.log.Warn("Token rejected", "status", status, "error", err)
			c.AbortWithStatusJSON(status, gin.H{
				"error": gin.H{"message": err.Error(), "code": code},
			})
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			Identity:  id.Identity,
			WorkerSID: id.WorkerSID,
			Roles:     id.Roles,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set("identity", id.Identity)
		c.Set("worker_sid", id.WorkerSID)
		c.Next()
	}
}

// extractToken looks at the Authorization and X-Flex-JWE headers, then the
// Token field of a form or JSON body. The body is left readable.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if jwe := strings.TrimSpace(c.GetHeader(headerFlexJWE)); jwe != "" {
		return jwe
	}
	if c.Request.Method == http.MethodGet {
		return strings.TrimSpace(c.Query("Token"))
	}
	if strings.HasPrefix(c.ContentType(), "application/json") {
		return tokenFromJSON(c)
	}
	return strings.TrimSpace(c.PostForm("Token"))
}

func tokenFromJSON(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTokenPeek))
	_ = c.Request.Body.Close()
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Token string `json:"Token"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Token)
}
