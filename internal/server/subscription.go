package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type purchaseAttemptsRequest struct {
	UserID   string `json:"user_id"`
	Quantity int    `json:"quantity"`
}

func (s *Server) GetMySubscription(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	subscription, err := s.subscriptionSvc.Current(c.Request.Context(), identity.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscription": subscription,
		"remaining":    subscription.Remaining(),
	})
}

func (s *Server) PurchaseAttempts(c *gin.Context) {
	var req purchaseAttemptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := snowflake.ParseString(req.UserID)
	if err != nil || userID == 0 {
		AbortWithError(c, newValidationError("user_id", "invalid_user", "user_id is required"))
		return
	}

	subscription, err := s.subscriptionSvc.PurchaseAttempts(c.Request.Context(), userID, req.Quantity)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscription": subscription,
		"remaining":    subscription.Remaining(),
	})
}
