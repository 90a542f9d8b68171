package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/klabast/wb-services/event-kalender/internal/app"
	"github.com/klabast/wb-services/event-kalender/internal/config"
	"github.com/klabast/wb-services/event-kalender/internal/logging"
)

// env carries what every subcommand needs after startup
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
	store  *app.GormStore
	closer io.Closer
}

func (e *env) Close() {
	if e.db != nil {
		if err := app.CloseDatabase(e.db); err != nil {
			e.logger.Warn("Failed to close database", "error", err)
		}
	}
	if err := e.closer.Close(); err != nil {
		e.logger.Warn("Failed to close log file", "error", err)
	}
}

// NewRootCmd assembles the CLI. Running it without a subcommand serves HTTP.
func NewRootCmd(version string) *cobra.Command {
	v := config.New()
	var configPath string

	root := &cobra.Command{
		Use:   "event-kalender",
		Short: "Month calendar with per-day events",
		Long: `event-kalender serves a month grid where short text events can be
added, edited and deleted per date and person.

Database connection via DATABASE_URL (postgres://, postgresql://, mysql:// or sqlite:///file.db).
Other settings via --config file or EVENT_KALENDER_* environment variables.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (yaml, toml or json)")

	serve := newServeCmd(v, &configPath)
	root.AddCommand(serve, newMigrateCmd(v, &configPath), newVersionCmd(version))
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// setup loads config, builds the logger and opens the database.
func setup(ctx context.Context, v *viper.Viper, configPath string) (*env, error) {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	db, err := app.OpenDatabase(cfg.Database, logger)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	e := &env{
		cfg:    cfg,
		logger: logger,
		db:     db,
		store:  app.NewGormStore(db),
		closer: closer,
	}
	if err := e.store.Ping(ctx); err != nil {
		e.Close()
		return nil, fmt.Errorf("database not reachable: %w", err)
	}
	return e, nil
}
