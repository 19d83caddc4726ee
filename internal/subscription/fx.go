package subscription

import (
	"github.com/dermalens/dermalens/internal/subscription/repository"
	"github.com/dermalens/dermalens/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
