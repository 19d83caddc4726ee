package main

import (
	"github.com/dermalens/dermalens/internal/clock"
	"github.com/dermalens/dermalens/internal/migration"
	"github.com/dermalens/dermalens/internal/observability"
	"github.com/dermalens/dermalens/internal/scheduler"
	"github.com/dermalens/dermalens/internal/server"
	"github.com/dermalens/dermalens/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		db.Module,
		migration.Module,
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
