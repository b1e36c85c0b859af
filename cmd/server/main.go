package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ogurasousui/codex-staffing/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-staffing/internal/core/client"
	"github.com/ogurasousui/codex-staffing/internal/core/project"
	"github.com/ogurasousui/codex-staffing/internal/core/status"
	"github.com/ogurasousui/codex-staffing/internal/core/user"
	"github.com/ogurasousui/codex-staffing/internal/platform/config"
	pg "github.com/ogurasousui/codex-staffing/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-staffing/internal/platform/logging"
	"github.com/ogurasousui/codex-staffing/internal/platform/server"
)

var rootCmd = &cobra.Command{
	Use:           "staffing-server",
	Short:         "gRPC and HTTP API for project assignments and user work status",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), viper.GetString("config"))
	},
}

func main() {
	// .env が無い環境(コンテナなど)では環境変数をそのまま使います。
	_ = godotenv.Load()

	cobra.OnInitialize(initConfig)
	rootCmd.Flags().StringP("config", "c", "", "path to config file (defaults to STAFFING_CONFIG_PATH, CONFIG_PATH or "+config.DefaultPath+")")
	_ = viper.BindPFlag("config", rootCmd.Flags().Lookup("config"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
}

func run(ctx context.Context, cfgFlag string) error {
	cfg, err := config.Load(config.ResolvePath(cfgFlag))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	log := logging.WithService(logger)

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database pool: %w", err)
	}
	defer dbPool.Close()

	svcs, err := buildServices(dbPool, cfg, log)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		GRPCAddr:        cfg.Server.ListenAddr,
		HTTPAddr:        cfg.Server.HTTPAddr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Location:        cfg.Status.Location,
		Logger:          log,
	}, svcs)

	log.WithFields(logrus.Fields{
		"timezone":   cfg.Status.Location.String(),
		"precedence": cfg.Status.ConfirmedPrecedence,
	}).Info("starting staffing server")

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func buildServices(pool *pgxpool.Pool, cfg *config.Config, log logrus.FieldLogger) (server.Services, error) {
	precedence, err := project.ParsePrecedence(cfg.Status.ConfirmedPrecedence)
	if err != nil {
		return server.Services{}, err
	}
	loc := cfg.Status.Location

	txManager := pg.NewTransactionManager(pool)
	userRepo := postgres.NewUserRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	projectRepo := postgres.NewProjectRepository(pool)
	historyRepo := postgres.NewStatusHistoryRepository(pool)

	ledger := status.NewLedger(historyRepo, userRepo, loc)
	checker := project.NewAssignmentChecker(projectRepo, loc)
	recalc := status.NewRecalculator(checker, ledger, txManager,
		status.WithLocker(historyRepo),
		status.WithLogger(log.WithField("component", "recalculator")),
		status.WithFanOutLimit(cfg.Status.FanOutLimit),
	)

	projectSvc := project.NewService(projectRepo, userRepo, clientRepo, recalc, nil, txManager,
		project.WithLogger(log.WithField("component", "project")),
		project.WithLocation(loc),
		project.WithPrecedence(precedence),
	)

	return server.Services{
		Projects: projectSvc,
		Users:    user.NewService(userRepo),
		History:  status.NewHistoryService(historyRepo, txManager),
		Clients:  client.NewService(clientRepo, nil),
	}, nil
}
