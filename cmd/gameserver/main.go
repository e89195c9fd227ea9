package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/molinet/emberfall/internal/ai"
	"github.com/molinet/emberfall/internal/combat"
	"github.com/molinet/emberfall/internal/config"
	"github.com/molinet/emberfall/internal/data"
	"github.com/molinet/emberfall/internal/db"
	"github.com/molinet/emberfall/internal/gateway"
	"github.com/molinet/emberfall/internal/party"
	"github.com/molinet/emberfall/internal/progression"
	"github.com/molinet/emberfall/internal/spawnzone"
	"github.com/molinet/emberfall/internal/store"
	"github.com/molinet/emberfall/internal/tick"
)

const ConfigPath = "config/gameserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("EMBERFALL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("emberfall server starting",
		"bind", cfg.BindAddress, "port", cfg.Port, "log_level", cfg.LogLevel)

	tables, err := data.Load(cfg.WorldDataPath)
	if err != nil {
		return fmt.Errorf("loading world data: %w", err)
	}
	slog.Info("world data loaded",
		"enemies", len(tables.Enemies), "routes", len(tables.Routes))

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	accountRepo := db.NewAccountRepository(database)
	playerRepo := db.NewPlayerRepository(database)
	leaderboardRepo := db.NewLeaderboardRepository(database)

	st := store.New()
	maxID, err := playerRepo.MaxID(ctx)
	if err != nil {
		return fmt.Errorf("reading max character id: %w", err)
	}
	st.SeedNextID(maxID)

	parties := party.NewManager()
	board := progression.NewLeaderboard(st, tables, cfg.Rules.LeaderboardSize)
	service := progression.NewService(st, tables, parties, board)

	engine := combat.NewEngine(st, tables, combat.Rules{
		MaxTargets:         cfg.Rules.MaxAttackTargets,
		DamagedRecovery:    cfg.Rules.DamagedRecovery(),
		PlayerRespawnDelay: cfg.Rules.PlayerRespawn(),
	})
	engine.SetKillFunc(service.OnKill)

	zones := spawnzone.NewManager(st, tables, cfg.Rules.CorpseGrace())
	engine.SetForceSpawnFunc(zones.ForceSpawn)
	zones.SetCascadeFunc(func(entityID uint32) {
		engine.Cooldowns().Forget(entityID)
		engine.DamageLog().Forget(entityID)
	})
	zones.SetPruneFunc(func(now time.Time) {
		engine.DamageLog().Prune(cfg.Rules.DamageRetention(), now)
	})

	resolver := ai.NewResolver(st, tables, cfg.Ticks.AI(), cfg.Rules.DamagedRecovery(), engine.BossAttack)

	persistence := db.NewPersistence(st, playerRepo, leaderboardRepo, board.Snapshot)
	server := gateway.NewServer(cfg, st, engine, tables, board, accountRepo, playerRepo, persistence)
	service.SetAnnounceFunc(server.Announce)

	sched := tick.New(st.Feed().SubscriberCount)
	sched.Add("ai", cfg.Ticks.AI(), resolver.Tick)
	sched.Add("spawn-maintenance", cfg.Ticks.SpawnMaint(), zones.MaintenanceTick)
	sched.Add("cleanup", cfg.Ticks.Cleanup(), zones.CleanupTick)
	sched.Add("leaderboard", cfg.Ticks.Leaderboard(), board.Tick)
	sched.Add("persistence", cfg.Ticks.Persistence(), persistence.Tick)
	sched.OnFatal(func(name string, err error) {
		slog.Error("fatal tick failure", "trigger", name, "error", err)
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := st.Run(gctx); err != nil {
			return fmt.Errorf("entity store: %w", err)
		}
		return nil
	})

	if err := zones.LoadRoutes(gctx); err != nil {
		return fmt.Errorf("loading routes: %w", err)
	}

	g.Go(func() error {
		slog.Info("starting tick scheduler")
		if err := sched.Run(gctx); err != nil {
			return fmt.Errorf("tick scheduler: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := server.Start(gctx); err != nil {
			return fmt.Errorf("gateway: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// parseLogLevel converts a string log level to slog.Level, defaulting
// to Info.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
