package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/wadash/internal/adapters/render/collection"
	"github.com/bnema/wadash/internal/application"
	"github.com/bnema/wadash/internal/domain"
)

func newLeadsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Browse recent leads",
	}

	cmd.AddCommand(newListCmd(app, domain.KindLead, app.cfg.Sync.LeadLimit), newLeadShowCmd(app))

	return cmd
}

func newLeadShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <lead-id>",
		Short: "Show a lead with its orders and conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var details domain.LeadDetails
			err := app.fetch(cmd, "Fetching lead...", func(ctx context.Context) error {
				var fetchErr error
				details, fetchErr = app.api.LeadDetails(ctx, args[0])
				return fetchErr
			})
			if err != nil {
				return err
			}

			if app.flags.json {
				if details.Orders == nil {
					details.Orders = []domain.Entity{}
				}
				return writeJSON(cmd, details)
			}
			return writeLeadDetails(cmd, app, details)
		},
	}
}

func writeLeadDetails(cmd *cobra.Command, app *app, details domain.LeadDetails) error {
	opts := collection.RenderOptions{Now: app.now(), Details: true}
	lead, err := app.render(application.Snapshot{
		Collection:  domain.NewCollection(domain.KindLead, []domain.Entity{details.Lead}, 0),
		SelectedID:  details.Lead.ID,
		Initialized: true,
	}, opts)
	if err != nil {
		return fmt.Errorf("render lead: %w", err)
	}
	if err := writeLine(cmd, "%s", lead); err != nil {
		return err
	}

	if details.Conversation != nil {
		conversation := details.Conversation
		if err := writeLine(cmd, "\nconversation: %s (%s)", conversation.ID, conversation.Field("status")); err != nil {
			return err
		}
	}

	orders, err := app.render(application.Snapshot{
		Collection:  domain.NewCollection(domain.KindOrder, details.Orders, 0),
		Initialized: true,
	}, collection.RenderOptions{Now: app.now()})
	if err != nil {
		return fmt.Errorf("render lead orders: %w", err)
	}
	return writeLine(cmd, "\n%s", orders)
}
