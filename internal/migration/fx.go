package migration

import (
	"strings"

	"github.com/dermalens/dermalens/internal/config"
	"github.com/dermalens/dermalens/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if !strings.EqualFold(cfg.DBType, "postgres") {
			// Non-postgres deployments (and sqlite test databases) manage
			// the schema through AutoMigrate.
			log.Warn("skipping sql migrations", zap.String("db_type", cfg.DBType))
			return autoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}

		if !cfg.IsProduction() {
			return seed.EnsureDefaultAdmin(conn)
		}
		return nil
	}),
)
