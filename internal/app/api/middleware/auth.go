package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/superstar643/PITCHINVEST-sub001/pkg/logctx"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/response"
)

// AuthMiddleware requires an HS256 bearer token signed with secret and
// exposes its subject as the request user id. An empty secret disables it.
func AuthMiddleware(secret string, base *zap.SugaredLogger) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if secret == "" || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Missing authorization header"))
			return
		}
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))

		claims := &jwt.StandardClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			logctx.FromGin(c, base).Infow("rejected bearer token", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Invalid token"))
			return
		}

		c.Set(logctx.UserIDKey, claims.Subject)
		c.Request = c.Request.WithContext(logctx.WithUserID(c.Request.Context(), claims.Subject))
		setLogger(c, logctx.FromGin(c, base).With("user_id", claims.Subject))
		c.Next()
	}
}

// AuthUserID returns the subject set by AuthMiddleware, or "".
func AuthUserID(c *gin.Context) string {
	return c.GetString(logctx.UserIDKey)
}
