package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/levelup/internal/api"
	"github.com/cory-johannsen/levelup/internal/config"
	"github.com/cory-johannsen/levelup/internal/game/combat"
	"github.com/cory-johannsen/levelup/internal/game/dice"
	"github.com/cory-johannsen/levelup/internal/game/enemy"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
	"github.com/cory-johannsen/levelup/internal/game/progression"
	"github.com/cory-johannsen/levelup/internal/game/recovery"
	"github.com/cory-johannsen/levelup/internal/game/session"
	"github.com/cory-johannsen/levelup/internal/observability"
	"github.com/cory-johannsen/levelup/internal/questgen"
	"github.com/cory-johannsen/levelup/internal/scripting"
	"github.com/cory-johannsen/levelup/internal/server"
	"github.com/cory-johannsen/levelup/internal/storage"
	"github.com/cory-johannsen/levelup/internal/storage/backend"
)

const shutdownGrace = 10 * time.Second

// app is the assembled daemon.
type app struct {
	Logger    *zap.Logger
	Lifecycle *server.Lifecycle
}

func provideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideRoller(cfg config.Config, logger *zap.Logger) *dice.Roller {
	return dice.NewLoggedRoller(dice.NewSource(cfg.Dice.Seed), logger)
}

func provideScriptRunner(cfg config.Config, logger *zap.Logger) *scripting.Runner {
	return scripting.NewRunner(cfg.Scripting.InstructionLimit, logger)
}

func provideCatalog(cfg config.Config, scripts *scripting.Runner, logger *zap.Logger) (*inventory.Catalog, error) {
	defs, err := inventory.LoadItems(cfg.Content.ItemsDir)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	catalog, err := inventory.NewCatalogFromDefs(defs, scripts)
	if err != nil {
		return nil, err
	}
	logger.Info("item catalog loaded", zap.Int("items", len(defs)))
	return catalog, nil
}

func provideFactory(catalog *inventory.Catalog) inventory.Factory {
	return inventory.NewFactory(catalog)
}

func provideBestiary(cfg config.Config, factory inventory.Factory, logger *zap.Logger) (*enemy.Bestiary, error) {
	enemies, err := enemy.LoadEnemies(cfg.Content.EnemiesDir)
	if err != nil {
		return nil, fmt.Errorf("loading enemies: %w", err)
	}
	logger.Info("bestiary loaded", zap.Int("enemies", len(enemies)))
	return enemy.NewBestiary(enemies, factory)
}

func provideSkillBook(cfg config.Config) (*combat.SkillBook, error) {
	skills, err := combat.LoadSkills(cfg.Content.SkillsDir)
	if err != nil {
		return nil, fmt.Errorf("loading skills: %w", err)
	}
	return combat.NewSkillBook(skills)
}

func provideProgression(cfg config.Config, factory inventory.Factory, logger *zap.Logger) (*progression.Engine, error) {
	policy, err := progression.ParsePolicy(cfg.Leveling.Policy)
	if err != nil {
		return nil, err
	}
	return progression.NewEngine(policy, cfg.Leveling.PointsPerLevel, factory, logger), nil
}

func provideStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, func(), error) {
	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}, nil
}

// provideDrafter returns nil when no API key is configured; the session
// service then answers DraftQuest with questgen.ErrDisabled.
func provideDrafter(cfg config.Config, catalog *inventory.Catalog, logger *zap.Logger) session.Drafter {
	gen := questgen.New(cfg.QuestGen, catalog, logger)
	if !gen.Enabled() {
		logger.Info("quest drafting disabled: no api key configured")
		return nil
	}
	return gen
}

func provideDeps(
	cfg config.Config,
	store storage.Store,
	engine *combat.Engine,
	prog *progression.Engine,
	catalog *inventory.Catalog,
	bestiary *enemy.Bestiary,
	drafter session.Drafter,
	logger *zap.Logger,
) session.Deps {
	return session.Deps{
		Store:          store,
		Combat:         engine,
		Progression:    prog,
		Items:          catalog,
		Bestiary:       bestiary,
		Recovery:       recovery.PolicyFromConfig(cfg.Recovery),
		Drafter:        drafter,
		EnemyTurnDelay: cfg.Server.EnemyTurnDelay,
		Now:            time.Now,
		Logger:         logger,
	}
}

func provideSession(ctx context.Context, cfg config.Config, deps session.Deps) (*session.Service, func(), error) {
	svc, err := session.Open(ctx, cfg.Storage.CharacterID, cfg.Storage.CharacterName, deps)
	if err != nil {
		return nil, nil, err
	}
	return svc, svc.Close, nil
}

func provideScheduler(cfg config.Config, svc *session.Service) *recovery.Scheduler {
	sched := recovery.NewScheduler(cfg.Recovery.CheckInterval)
	sched.Register(svc.ID(), svc.Tick)
	return sched
}

func provideHTTPServer(cfg config.Config, svc *session.Service, logger *zap.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewHandler(svc, cfg.Server.AllowedOrigins, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideLifecycle(srv *http.Server, sched *recovery.Scheduler, logger *zap.Logger) *server.Lifecycle {
	lc := server.NewLifecycle(logger)
	lc.Add("http", server.HTTPService(srv, shutdownGrace, logger))
	lc.Add("recovery", server.SchedulerService(sched))
	return lc
}
