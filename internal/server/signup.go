package server

import (
	"net/http"

	signupdomain "github.com/dermalens/dermalens/internal/signup/domain"
	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

func (s *Server) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.signupSvc.Signup(c.Request.Context(), signupdomain.Request{
		Email:        req.Email,
		FullName:     req.FullName,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":         result.User,
		"subscription": result.Subscription,
	})
}
