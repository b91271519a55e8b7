package main

import (
	"fmt"

	"github.com/richxcame/delivery-fares/pkg/config"
	"github.com/richxcame/delivery-fares/pkg/database"
	"github.com/richxcame/delivery-fares/pkg/logger"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var (
		down  bool
		steps int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(serviceName)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := logger.Init(cfg.Server.Environment); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer logger.Sync()

			direction := database.MigrateUp
			if down {
				direction = database.MigrateDown
			}
			return database.RunMigrations(cfg.Database.MigrationsPath, cfg.Database.URL(), direction, steps, logger.Get())
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll migrations back instead of applying them")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to apply or roll back (0 = all)")
	return cmd
}
