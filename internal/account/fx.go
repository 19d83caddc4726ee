package account

import (
	"github.com/dermalens/dermalens/internal/account/repository"
	"github.com/dermalens/dermalens/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
