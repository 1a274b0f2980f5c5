package cmd

import (
	"fmt"

	"recipebox/internal/logging"
	"recipebox/internal/store"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema or indexes of the configured store",
	Long: `Connect to the configured store, create its tables (postgres, sqlite) or
unique indexes (mongo), and exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		storeCfg := cfg.Store
		storeCfg.AutoMigrate = false
		avail := store.Open(cmd.Context(), storeCfg)
		s, err := avail.Store()
		if err != nil {
			return fmt.Errorf("store unavailable: %w", err)
		}
		defer s.Close(cmd.Context())

		if err := s.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logging.Info().Str("driver", s.Driver()).Msg("migration complete")
		fmt.Fprintf(cmd.OutOrStdout(), "migrated %s store\n", s.Driver())
		return nil
	},
}
