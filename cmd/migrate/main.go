package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ogurasousui/codex-staffing/internal/platform/config"
)

var (
	configPath    string
	migrationsDir string
	downSteps     int
)

var rootCmd = &cobra.Command{
	Use:           "staffing-migrate",
	Short:         "Apply or inspect database schema migrations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (defaults to STAFFING_CONFIG_PATH, CONFIG_PATH or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "assets/migrations", "directory containing migration files")

	downCmd.Flags().IntVarP(&downSteps, "steps", "n", 0, "number of migrations to roll back (0 rolls back all)")

	rootCmd.AddCommand(upCmd, downCmd, dropCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("migration failed")
		os.Exit(1)
	}
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(*cobra.Command, []string) error {
		return withMigrate(func(m *migrate.Migrate) error {
			if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return err
			}
			logrus.Info("migration up completed")
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(*cobra.Command, []string) error {
		return withMigrate(func(m *migrate.Migrate) error {
			var err error
			if downSteps > 0 {
				err = m.Steps(-downSteps)
			} else {
				err = m.Down()
			}
			if err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return err
			}
			logrus.Info("migration down completed")
			return nil
		})
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop every table in the database",
	RunE: func(*cobra.Command, []string) error {
		return withMigrate(func(m *migrate.Migrate) error {
			return m.Drop()
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied migration version",
	RunE: func(*cobra.Command, []string) error {
		return withMigrate(func(m *migrate.Migrate) error {
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				logrus.Info("no migration applied")
				return nil
			}
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("current migration version")
			return nil
		})
	},
}

func withMigrate(fn func(*migrate.Migrate) error) error {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	m, err := newMigrate(migrationsDir, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

func newMigrate(dir, dsn string) (*migrate.Migrate, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve path for %s: %w", dir, err)
	}
	absDir = filepath.ToSlash(absDir)

	m, err := migrate.New(fmt.Sprintf("file://%s", absDir), dsn)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}
