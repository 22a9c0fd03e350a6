package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tvtracker/tvtracker/internal/alerts"
	"github.com/tvtracker/tvtracker/internal/api"
	"github.com/tvtracker/tvtracker/internal/artwork"
	"github.com/tvtracker/tvtracker/internal/auth"
	"github.com/tvtracker/tvtracker/internal/ingest"
	"github.com/tvtracker/tvtracker/internal/notification"
	"github.com/tvtracker/tvtracker/internal/scheduler"
	"github.com/tvtracker/tvtracker/internal/shows"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <show name>",
		Short: "Look a show up in the catalog and store it",
		Long: "Look a show up in the catalog and store it.\n\n" +
			"The weekly alert is recorded but not armed; a running server picks it up\n" +
			"on its next reconcile.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			log := ctx.newLogger(cfg, false)
			defer log.Close()

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			showService := shows.NewService(db.Conn(), log.Logger)
			authService, err := auth.NewService(db.Conn(), cfg.Auth, log.Logger)
			if err != nil {
				return err
			}

			loc, err := cfg.Scheduler.Location()
			if err != nil {
				return err
			}
			// Never started: this process must not take the scheduler lock.
			sched, err := scheduler.New(log.Logger, scheduler.WithLocation(loc))
			if err != nil {
				return err
			}

			alertService, err := alerts.NewService(db.Conn(), sched, showService, authService,
				notification.New(cfg.Mail, log.Logger), cfg.Scheduler, log.Logger)
			if err != nil {
				return err
			}

			catalog := api.NewCatalog(cfg.Catalog, log.Logger)
			transcoder := artwork.NewTranscoder(cfg.Artwork, log.Logger)
			ingestService := ingest.NewService(cfg.Ingest, catalog, transcoder, showService, log.Logger)
			ingestService.SetAlertScheduler(alertService)

			name := strings.Join(args, " ")
			show, err := ingestService.Ingest(cmd.Context(), name)
			switch {
			case errors.Is(err, ingest.ErrNotFound):
				return fmt.Errorf("%s was not found", name)
			case errors.Is(err, ingest.ErrDuplicate):
				return fmt.Errorf("%s already exists", name)
			case err != nil:
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added %s (id %d, %d episodes)\n", show.Name, show.ID, len(show.Episodes))
			if job, err := alertService.GetJob(cmd.Context(), show.ID); err == nil {
				fmt.Fprintf(out, "Alert %s %s, first at %s\n", job.Key, job.State, job.NextFireAt.Format("Mon Jan 2 15:04 MST"))
			} else {
				fmt.Fprintln(out, "No weekly alert: the show has no broadcast slot")
			}
			return nil
		},
	}
}
