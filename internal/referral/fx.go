package referral

import (
	"github.com/dermalens/dermalens/internal/referral/repository"
	"github.com/dermalens/dermalens/internal/referral/service"
	"go.uber.org/fx"
)

var Module = fx.Module("referral.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
