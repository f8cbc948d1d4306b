package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/emberdeck/skirmish/internal/account"
	"github.com/emberdeck/skirmish/internal/cli"
	"github.com/emberdeck/skirmish/internal/config"
	"github.com/emberdeck/skirmish/internal/game"
	"github.com/emberdeck/skirmish/internal/gamedata"
	"github.com/emberdeck/skirmish/internal/random"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/skirmish.yaml", "path to configuration file")
	accountID  = flag.String("account", "", "existing account id; a starter account is created when empty")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting skirmish",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("skirmish stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	repo, closeRepo, err := openAccounts(ctx, cfg.Accounts, logger)
	if err != nil {
		return err
	}
	defer closeRepo()
	accounts := account.NewService(repo, logger.Named("accounts"))

	id := *accountID
	if id == "" {
		id, err = accounts.CreateAccount(ctx, gamedata.StarterCharacters, gamedata.StarterDemons)
		if err != nil {
			return err
		}
	}

	seed := cfg.Game.Seed
	if seed == 0 {
		if seed, err = random.NewSeed(); err != nil {
			return err
		}
	}
	logger.Info("combat seed", zap.Int64("seed", seed))

	opts := []game.Option{
		game.WithRand(random.New(seed)),
		game.WithHandSize(cfg.Game.StartingHandSize),
	}
	if cfg.Journal.Directory != "" {
		if err := os.MkdirAll(cfg.Journal.Directory, 0o755); err != nil {
			return fmt.Errorf("failed to create journal directory: %w", err)
		}
		opts = append(opts, game.WithJournal(cfg.Journal.Directory))
	}
	engine := game.NewEngine(accounts, gamedata.MustNew(), logger.Named("engine"), opts...)

	sessionID, err := engine.OpenSession(ctx, id)
	if err != nil {
		return err
	}
	if err := engine.BeginCombat(ctx, sessionID, cfg.Game.Party, cfg.Game.Enemy); err != nil {
		return err
	}

	term := cli.New(engine, sessionID, logger)
	defer term.Close()

	done := make(chan error, 1)
	go func() { done <- term.Run() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		logger.Info("interrupted", zap.String("session_id", sessionID))
		return nil
	}
}

func openAccounts(ctx context.Context, cfg config.AccountsConfig, logger *zap.Logger) (account.Repository, func(), error) {
	if cfg.Driver != "postgres" {
		return account.NewMemoryRepository(), func() {}, nil
	}
	pool, err := account.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	repo := account.NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	stats := pool.Stat()
	logger.Info("database connection pool initialized",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)
	return repo, pool.Close, nil
}

// initLogger initializes the zap logger based on configuration. Logs go to
// stderr so they do not interleave with the table on stdout.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}
