package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hypervisual/finance-workflow/internal/domain/entity"
)

const identityContextKey = "identity"

// authMiddleware verifies the bearer token and stores the acting identity in
// the request context.
func authMiddleware(tokens *TokenManager, logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing bearer token",
			})
			return
		}

		identity, err := tokens.ParseToken(tokenString)
		if err != nil {
			logger.Info("Rejected request with invalid token", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid token",
			})
			return
		}

		c.Set(identityContextKey, identity)
		c.Next()
	}
}

// actingIdentity retrieves the authenticated identity set by authMiddleware.
func actingIdentity(c *gin.Context) entity.Identity {
	if v, ok := c.Get(identityContextKey); ok {
		if identity, ok := v.(entity.Identity); ok {
			return identity
		}
	}
	return entity.Identity{}
}
