package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func ExecuteContext(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "wadash",
		Short:         "wadash: WhatsApp bot dashboard in the terminal",
		Long:          "wadash logs in to a WhatsApp bot dashboard API, lists conversations, leads, orders and appointments, runs campaigns, and keeps a live view in sync over websocket or AMQP.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().BoolVar(&flags.json, "json", false, "Render JSON output")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug output to stderr")

	app, err := wireApp(flags)
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		app.applyVerbosity()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newConversationsCmd(app),
		newLeadsCmd(app),
		newOrdersCmd(app),
		newAppointmentsCmd(app),
		newCampaignsCmd(app),
		newAnalyticsCmd(app),
		newWatchCmd(app),
	)

	return rootCmd
}
