package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/wadash/internal/adapters/render/collection"
	"github.com/bnema/wadash/internal/application"
	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

var (
	errSessionExpired = errors.New("session expired, run `wadash login`")
	errLoginRequired  = errors.New("not logged in, run `wadash login`")
)

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func writeLine(cmd *cobra.Command, format string, args ...any) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	return err
}

// userError points the user at the login command when the session is gone.
func userError(err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsAuthError(err):
		return fmt.Errorf("%w: %w", errSessionExpired, err)
	case errors.Is(err, domain.ErrNotLoggedIn):
		return errLoginRequired
	default:
		return err
	}
}

// spin runs fn behind a spinner on stderr unless JSON output is requested.
func (a *app) spin(cmd *cobra.Command, label string, fn func(context.Context) error) error {
	if a.flags.json {
		return fn(cmd.Context())
	}
	return runFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), label, fn)
}

func (a *app) fetch(cmd *cobra.Command, label string, fn func(context.Context) error) error {
	return userError(a.spin(cmd, label, fn))
}

func (a *app) writeCollection(cmd *cobra.Command, c domain.Collection) error {
	if a.flags.json {
		items := c.Items
		if items == nil {
			items = []domain.Entity{}
		}
		return writeJSON(cmd, items)
	}

	rendered, err := a.render(application.Snapshot{Collection: c, Initialized: true}, collection.RenderOptions{Now: a.now()})
	if err != nil {
		return fmt.Errorf("render %s: %w", c.Kind.Schema().PluralLabel, err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

// listEntities fetches one kind for the logged-in client.
func (a *app) listEntities(cmd *cobra.Command, kind domain.EntityKind, limit int) ([]domain.Entity, error) {
	clientID, err := a.clientID(cmd.Context())
	if err != nil {
		return nil, userError(err)
	}

	var items []domain.Entity
	label := fmt.Sprintf("Fetching %s...", strings.ToLower(kind.Schema().PluralLabel))
	err = a.fetch(cmd, label, func(ctx context.Context) error {
		var fetchErr error
		items, fetchErr = a.api.ListEntities(ctx, kind, ports.ListOptions{Limit: limit, ClientID: clientID})
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
