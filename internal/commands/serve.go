package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/klabast/wb-services/event-kalender/internal/app"
)

func newServeCmd(v *viper.Viper, configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, v, *configPath)
		},
	}

	cmd.Flags().Int("port", 0, "Port to listen on (overrides server.port)")
	cmd.Flags().Bool("auto-migrate", true, "Create or update the event table on startup")
	_ = v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("database.auto_migrate", cmd.Flags().Lookup("auto-migrate"))

	return cmd
}

func runServe(ctx context.Context, v *viper.Viper, configPath string) error {
	e, err := setup(ctx, v, configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.Database.AutoMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return err
		}
	}

	srv, err := app.NewServer(e.store, e.logger, app.Options{
		ReadTimeout:  e.cfg.Server.ReadTimeout,
		WriteTimeout: e.cfg.Server.WriteTimeout,
	})
	if err != nil {
		return err
	}

	addr := e.cfg.Server.Addr()
	e.logger.Info("Starting event-kalender",
		"addr", addr,
		"driver", e.cfg.Database.Driver,
		"auto_migrate", e.cfg.Database.AutoMigrate)

	return srv.Listen(ctx, addr, e.cfg.Server.ShutdownTimeout)
}
