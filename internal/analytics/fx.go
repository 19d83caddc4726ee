package analytics

import (
	"github.com/dermalens/dermalens/internal/analytics/repository"
	"github.com/dermalens/dermalens/internal/analytics/service"
	"go.uber.org/fx"
)

var Module = fx.Module("analytics.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
