package seed

import (
	"context"
	"errors"
	"time"

	accountdomain "github.com/dermalens/dermalens/internal/account/domain"
	subscriptiondomain "github.com/dermalens/dermalens/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@dermalens.app"
	defaultAdminPassword = "admin"
	defaultAdminName     = "Dermalens Admin"
)

// EnsureDefaultAdmin seeds a local admin account so a fresh development
// database is usable immediately. Production deployments never call this.
func EnsureDefaultAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user accountdomain.User
		err := tx.WithContext(ctx).
			Where("email = ?", defaultAdminEmail).
			First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		user = accountdomain.User{
			ID:           node.Generate(),
			Email:        defaultAdminEmail,
			FullName:     defaultAdminName,
			PasswordHash: string(hashed),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
			return err
		}

		subscription := subscriptiondomain.Subscription{
			ID:            node.Generate(),
			UserID:        user.ID,
			Status:        subscriptiondomain.SubscriptionStatusActive,
			PlanID:        subscriptiondomain.PlanFree,
			PeriodStart:   now,
			AttemptsUsed:  0,
			AttemptsLimit: subscriptiondomain.BaseAttempts,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return tx.WithContext(ctx).Create(&subscription).Error
	})
}
