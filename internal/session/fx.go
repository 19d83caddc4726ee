package session

import (
	"github.com/dermalens/dermalens/internal/session/liveevents"
	"github.com/dermalens/dermalens/internal/session/repository"
	"github.com/dermalens/dermalens/internal/session/service"
	"go.uber.org/fx"
)

var Module = fx.Module("session.service",
	fx.Provide(liveevents.NewHub),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
