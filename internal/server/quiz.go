package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) StartQuiz(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	result, err := s.subscriptionSvc.ConsumeAttempt(c.Request.Context(), identity.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscription": result.Subscription,
		"remaining":    result.Remaining,
	})
}
