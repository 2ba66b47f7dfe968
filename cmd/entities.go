package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bnema/wadash/internal/domain"
)

// newListCmd lists one entity kind, optionally narrowed by a search term.
func newListCmd(app *app, kind domain.EntityKind, defaultLimit int) *cobra.Command {
	var limit int
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + kind.Schema().PluralLabel,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := app.listEntities(cmd, kind, limit)
			if err != nil {
				return err
			}
			items = domain.SearchEntities(kind, items, search)
			return app.writeCollection(cmd, domain.NewCollection(kind, items, limit))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultLimit, "Maximum number of items (0 for all)")
	cmd.Flags().StringVar(&search, "search", "", "Keep items matching this term")

	return cmd
}

func newOrdersCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Browse orders",
	}

	cmd.AddCommand(newListCmd(app, domain.KindOrder, 0))

	return cmd
}

func newAppointmentsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "Browse and cancel appointments",
	}

	cmd.AddCommand(newListCmd(app, domain.KindAppointment, 0), newAppointmentDeleteCmd(app))

	return cmd
}

func newAppointmentDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <appointment-id>",
		Short: "Delete an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			err := app.fetch(cmd, "Deleting appointment...", func(ctx context.Context) error {
				return app.api.DeleteAppointment(ctx, id)
			})
			if err != nil {
				return err
			}
			if app.flags.json {
				return writeJSON(cmd, map[string]string{"deleted": id})
			}
			return writeLine(cmd, "Deleted appointment %s", id)
		},
	}
}
