package server

import (
	"strings"

	"github.com/dermalens/dermalens/internal/auth"
	"github.com/gin-gonic/gin"
)

const contextIdentityKey = "identity"

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := s.verifier.Verify(bearerToken(c))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextIdentityKey, identity)
		c.Next()
	}
}

func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := s.verifier.Verify(bearerToken(c))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !identity.IsAdmin() {
			AbortWithError(c, ErrForbidden)
			return
		}

		c.Set(contextIdentityKey, identity)
		c.Next()
	}
}

func (s *Server) SessionRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.sessionLimiter == nil {
			c.Next()
			return
		}
		if !s.sessionLimiter.Allow(c.Request.Context(), c.ClientIP()) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

func identityFromContext(c *gin.Context) *auth.Identity {
	value, ok := c.Get(contextIdentityKey)
	if !ok {
		return nil
	}
	identity, ok := value.(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}
