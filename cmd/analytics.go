package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/wadash/internal/adapters/render/stats"
	"github.com/bnema/wadash/internal/application"
	"github.com/bnema/wadash/internal/domain"
)

const defaultStatsDays = 7

func newAnalyticsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show bot activity statistics",
	}

	cmd.AddCommand(newAnalyticsDailyCmd(app), newAnalyticsRealtimeCmd(app))

	return cmd
}

type dailyReport struct {
	Days   []domain.DailyStats `json:"days"`
	Totals domain.StatsTotals  `json:"totals"`
}

func newAnalyticsDailyCmd(app *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Daily chats, users, bookings and reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days <= 0 {
				return fmt.Errorf("invalid --days %d: must be positive", days)
			}

			var daily []domain.DailyStats
			err := app.fetch(cmd, "Fetching analytics...", func(ctx context.Context) error {
				var fetchErr error
				daily, fetchErr = app.api.DailyStats(ctx, days)
				return fetchErr
			})
			if err != nil {
				return err
			}

			if app.flags.json {
				sorted := domain.SortDailyStats(daily)
				return writeJSON(cmd, dailyReport{Days: sorted, Totals: domain.SumDailyStats(sorted)})
			}
			return writeLine(cmd, "%s", stats.RenderDaily(daily))
		},
	}

	cmd.Flags().IntVar(&days, "days", defaultStatsDays, "Number of days to report")

	return cmd
}

func newAnalyticsRealtimeCmd(app *app) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Live lead, order and click counters",
		Long:  "realtime prints the dashboard counters. With --follow it bumps them on realtime events and refreshes them every sync.poll_interval until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientID, err := app.clientID(cmd.Context())
			if err != nil {
				return userError(err)
			}

			var live domain.RealtimeStats
			err = app.fetch(cmd, "Fetching realtime stats...", func(ctx context.Context) error {
				var fetchErr error
				live, fetchErr = app.api.RealtimeStats(ctx, clientID)
				return fetchErr
			})
			if err != nil {
				return err
			}

			if !follow {
				if app.flags.json {
					return writeJSON(cmd, live)
				}
				return writeLine(cmd, "%s", stats.RenderRealtime(live))
			}
			if err := app.writeRealtime(cmd, live); err != nil {
				return err
			}

			events, err := app.eventSource(clientID)
			if err != nil {
				return err
			}
			err = application.FollowRealtimeStats(cmd.Context(), app.api, events, application.LiveStatsConfig{
				ClientID:     clientID,
				PollInterval: app.cfg.Sync.PollInterval,
			}, live, func(updated domain.RealtimeStats) {
				_ = app.writeRealtime(cmd, updated)
			}, app.log)
			return userError(err)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep the counters updated from realtime events and polls")

	return cmd
}

// writeRealtime prints one counters report while following. JSON mode writes
// one compact document per line.
func (a *app) writeRealtime(cmd *cobra.Command, live domain.RealtimeStats) error {
	if a.flags.json {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(live)
	}
	return writeLine(cmd, "%s", stats.RenderRealtime(live))
}
