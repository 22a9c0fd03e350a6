package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tvtracker/tvtracker/internal/database"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or list database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			db, err := database.New(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			out := cmd.OutOrStdout()
			switch action {
			case "down":
				if err := db.MigrateDown(); err != nil {
					return err
				}
				fmt.Fprintln(out, "Rolled back the latest migration")
			case "status":
				return db.MigrationStatus(out)
			default:
				if err := db.Migrate(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Database %s is up to date\n", db.Path())
			}
			return nil
		},
	}
}
