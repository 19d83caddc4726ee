package migration

import (
	accountdomain "github.com/dermalens/dermalens/internal/account/domain"
	referraldomain "github.com/dermalens/dermalens/internal/referral/domain"
	sessiondomain "github.com/dermalens/dermalens/internal/session/domain"
	subscriptiondomain "github.com/dermalens/dermalens/internal/subscription/domain"
	"gorm.io/gorm"
)

func autoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&accountdomain.User{},
		&subscriptiondomain.Subscription{},
		&subscriptiondomain.QuizAttempt{},
		&referraldomain.ReferralCode{},
		&referraldomain.ReferralEvent{},
		&sessiondomain.Heartbeat{},
		&sessiondomain.PageView{},
	)
}
