package server

import (
	"net/http"

	referraldomain "github.com/dermalens/dermalens/internal/referral/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) referralLink(code string) string {
	return s.cfg.ReferralLinkBase + code
}

func (s *Server) CreateReferralCode(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	code, err := s.referralSvc.GetOrCreateCode(c.Request.Context(), identity.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code": code.Code,
		"referral_link": s.referralLink(code.Code),
	})
}

func (s *Server) GetMyReferralCode(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	code, err := s.referralSvc.GetOrCreateCode(c.Request.Context(), identity.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code":      code.Code,
		"referral_link":      s.referralLink(code.Code),
		"uses_count":         code.UsesCount,
		"last_used_at":       code.LastUsedAt,
		"last_10_reached_at": code.Last10ReachedAt,
	})
}

func (s *Server) ValidateReferralCode(c *gin.Context) {
	validation, err := s.referralSvc.Validate(c.Request.Context(), c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, validateReferralResponse(validation))
}

func validateReferralResponse(v *referraldomain.Validation) gin.H {
	return gin.H{
		"referrer": gin.H{
			"id":        v.Referrer.ID,
			"email":     v.Referrer.Email,
			"full_name": v.Referrer.FullName,
		},
		"uses_count":         v.Code.UsesCount,
		"created_at":         v.Code.CreatedAt,
		"last_10_reached_at": v.Code.Last10ReachedAt,
	}
}
