package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newMigrateCmd(v *viper.Viper, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the event table and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), v, *configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.store.Migrate(cmd.Context()); err != nil {
				return err
			}
			e.logger.Info("Schema is up to date", "driver", e.cfg.Database.Driver)
			return nil
		},
	}
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
