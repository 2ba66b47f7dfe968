package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bnema/wadash/internal/adapters/metrics"
	"github.com/bnema/wadash/internal/adapters/render/collection"
	"github.com/bnema/wadash/internal/application"
	"github.com/bnema/wadash/internal/domain"
)

const metricsShutdownTimeout = 2 * time.Second

type watchOptions struct {
	kind        domain.EntityKind
	limit       int
	metricsAddr string
	once        bool
}

func newWatchCmd(app *app) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:       "watch <conversations|leads|orders|appointments>",
		Short:     "Keep a live view of one collection in sync",
		Long:      "watch loads a collection and keeps it current from periodic polls and realtime events. Use j/k to move, r to refresh and q to quit.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"conversations", "leads", "orders", "appointments"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseEntityKind(args[0])
			if err != nil {
				return err
			}
			opts.kind = kind
			if kind == domain.KindLead && !cmd.Flags().Changed("limit") {
				opts.limit = app.cfg.Sync.LeadLimit
			}
			return runWatch(cmd, app, opts)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum number of items kept (leads default to sync.lead_limit)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Print the initial view and exit")

	return cmd
}

func runWatch(cmd *cobra.Command, app *app, opts watchOptions) error {
	ctx := cmd.Context()

	session, err := app.sessions.Open(ctx)
	if err != nil {
		return userError(err)
	}
	clientID := session.Profile().ClientID
	if app.cfg.ClientID != "" {
		clientID = app.cfg.ClientID
	}

	events, err := app.eventSource(clientID)
	if err != nil {
		return err
	}

	recorder := metrics.NewRecorder()
	client, err := session.NewSyncClient(application.SyncConfig{
		Kind:         opts.kind,
		Limit:        opts.limit,
		ClientID:     clientID,
		PollInterval: app.cfg.Sync.PollInterval,
	}, app.api, events,
		application.WithSyncLogger(app.log),
		application.WithSyncMetrics(recorder),
	)
	if err != nil {
		return userError(err)
	}
	defer client.Teardown()

	label := fmt.Sprintf("Loading %s...", strings.ToLower(opts.kind.Schema().PluralLabel))
	if err := app.fetch(cmd, label, func(ctx context.Context) error {
		_, initErr := client.Initialize(ctx)
		return initErr
	}); err != nil {
		if session.Disposed() {
			return errSessionExpired
		}
		return err
	}

	if opts.metricsAddr != "" {
		stop, err := serveMetrics(opts.metricsAddr, recorder.Handler(), app.log)
		if err != nil {
			return err
		}
		defer stop()
	}

	if opts.once {
		return app.writeSnapshot(cmd, client.Snapshot())
	}

	feed := collection.NewFeed()
	unsubscribe := client.Subscribe(feed.Push)
	defer unsubscribe()

	if app.flags.json {
		err = streamSnapshots(ctx, cmd, client, feed)
	} else {
		err = runWatchProgram(ctx, cmd, app, client, feed)
	}
	if err != nil {
		return err
	}
	if session.Disposed() {
		return errSessionExpired
	}
	return nil
}

func runWatchProgram(ctx context.Context, cmd *cobra.Command, app *app, client *application.SyncClient, feed *collection.Feed) error {
	model := collection.NewWatchModel(ctx, client.Snapshot(), feed.C(), client.Done(), client, app.now)
	p := tea.NewProgram(
		model,
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil || errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("run watch view: %w", err)
	}
	return nil
}

type snapshotView struct {
	Kind        domain.EntityKind `json:"kind"`
	Version     uint64            `json:"version"`
	Conn        string            `json:"conn"`
	PollFailing bool              `json:"pollFailing"`
	PollError   string            `json:"pollError,omitempty"`
	SelectedID  string            `json:"selectedId,omitempty"`
	Items       []domain.Entity   `json:"items"`
}

func newSnapshotView(snapshot application.Snapshot) snapshotView {
	view := snapshotView{
		Kind:        snapshot.Collection.Kind,
		Version:     snapshot.Version,
		Conn:        snapshot.Conn.String(),
		PollFailing: snapshot.PollFailing,
		SelectedID:  snapshot.SelectedID,
		Items:       snapshot.Collection.Items,
	}
	if snapshot.PollErr != nil {
		view.PollError = snapshot.PollErr.Error()
	}
	if view.Items == nil {
		view.Items = []domain.Entity{}
	}
	return view
}

func (a *app) writeSnapshot(cmd *cobra.Command, snapshot application.Snapshot) error {
	if a.flags.json {
		return writeJSON(cmd, newSnapshotView(snapshot))
	}

	rendered, err := a.render(snapshot, collection.RenderOptions{Now: a.now(), Live: true})
	if err != nil {
		return fmt.Errorf("render watch view: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

// streamSnapshots writes one JSON document per state change until the client
// stops or ctx ends.
func streamSnapshots(ctx context.Context, cmd *cobra.Command, client *application.SyncClient, feed *collection.Feed) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if err := enc.Encode(newSnapshotView(client.Snapshot())); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-client.Done():
			return nil
		case snapshot := <-feed.C():
			if err := enc.Encode(newSnapshotView(snapshot)); err != nil {
				return err
			}
		}
	}
}

func serveMetrics(addr string, handler http.Handler, log zerolog.Logger) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn().Err(err).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", listener.Addr().String()).Msg("serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}
