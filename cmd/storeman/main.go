package main

import (
	"time"

	"go.uber.org/fx"

	"storeman/internal/configfx"
	"storeman/internal/domainfx"
	"storeman/internal/loggerfx"
	"storeman/internal/webfx"
)

func main() {
	logger := loggerfx.Logger()

	app := fx.New(
		fx.StartTimeout(15*time.Second),
		fx.StopTimeout(15*time.Second),

		fx.Logger(logger),

		loggerfx.Module,
		configfx.Module,
		domainfx.Module,
		webfx.Module,
	)

	app.Run()
}
