package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tvtracker/tvtracker/internal/shows"
)

func newShowsCommand(ctx *commandContext) *cobra.Command {
	var genre string
	var alphabet string
	var limit int

	cmd := &cobra.Command{
		Use:   "shows",
		Short: "List stored shows",
		Args:  cobra.NoArgs,
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

			list, err := shows.NewService(db.Conn(), log.Logger).List(cmd.Context(), shows.ListFilter{
				Genre:       strings.TrimSpace(genre),
				NameInitial: strings.TrimSpace(alphabet),
				Limit:       limit,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No shows found")
				return nil
			}
			fmt.Fprintln(out, renderShows(list))
			return nil
		},
	}

	cmd.Flags().StringVar(&genre, "genre", "", "Only shows in this genre")
	cmd.Flags().StringVar(&alphabet, "alphabet", "", "Only shows whose name starts with this letter or digit")
	cmd.Flags().IntVar(&limit, "limit", shows.DefaultListLimit, "Maximum shows to list without a filter")
	return cmd
}

func renderShows(list []*shows.Show) string {
	rows := make([][]string, 0, len(list))
	for _, show := range list {
		airs := "-"
		if show.AirsDayOfWeek != "" {
			airs = strings.TrimSpace(show.AirsDayOfWeek + " " + show.AirsTime)
		}
		rows = append(rows, []string{
			strconv.FormatInt(show.ID, 10),
			show.Name,
			valueOrDash(show.Network),
			airs,
			valueOrDash(strings.Join(show.Genres, ", ")),
			strconv.Itoa(len(show.Subscribers)),
		})
	}
	return renderTable(
		[]string{"ID", "Name", "Network", "Airs", "Genres", "Subscribers"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func valueOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
