//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/cory-johannsen/levelup/internal/config"
	"github.com/cory-johannsen/levelup/internal/game/combat"
)

func initializeApp(ctx context.Context, cfg config.Config) (*app, func(), error) {
	wire.Build(
		provideLogger,
		provideRoller,
		provideScriptRunner,
		provideCatalog,
		provideFactory,
		provideBestiary,
		provideSkillBook,
		provideProgression,
		combat.NewEngine,
		provideStore,
		provideDrafter,
		provideDeps,
		provideSession,
		provideScheduler,
		provideHTTPServer,
		provideLifecycle,
		wire.Struct(new(app), "*"),
	)
	return nil, nil, nil
}
