package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/wadash/internal/domain"
)

type profileView struct {
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	ClientID     string    `json:"clientId"`
	BusinessType string    `json:"businessType"`
	LoggedInAt   time.Time `json:"loggedInAt,omitempty"`
}

func newProfileView(profile domain.Profile) profileView {
	return profileView{
		Email:        profile.Email,
		Name:         profile.Name,
		ClientID:     profile.ClientID,
		BusinessType: profile.BusinessType,
		LoggedInAt:   profile.LoggedInAt,
	}
}

func newLoginCmd(app *app) *cobra.Command {
	var email string
	var password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passwordStdin {
				line, err := readLine(cmd)
				if err != nil {
					return fmt.Errorf("read password from stdin: %w", err)
				}
				password = line
			}
			if password == "" {
				return errors.New("password is required: pass --password or --password-stdin")
			}

			var profile domain.Profile
			err := app.spin(cmd, "Logging in...", func(ctx context.Context) error {
				var loginErr error
				profile, loginErr = app.sessions.Login(ctx, email, password)
				return loginErr
			})
			if err != nil {
				if domain.IsAuthError(err) {
					return fmt.Errorf("login rejected: check the email and password: %w", err)
				}
				return err
			}

			if app.flags.json {
				return writeJSON(cmd, newProfileView(profile))
			}
			return writeLine(cmd, "Logged in as %s (%s)", profile.DisplayName(), profile.BusinessType)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Dashboard account email")
	cmd.Flags().StringVar(&password, "password", "", "Dashboard account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	_ = cmd.MarkFlagRequired("email")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")

	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.sessions.Logout(cmd.Context()); err != nil {
				if errors.Is(err, domain.ErrNotLoggedIn) {
					return writeLine(cmd, "Not logged in.")
				}
				return err
			}
			return writeLine(cmd, "Logged out.")
		},
	}
}

func newWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := app.sessions.Profile(cmd.Context())
			if err != nil {
				return userError(err)
			}
			if app.cfg.ClientID != "" {
				profile.ClientID = app.cfg.ClientID
			}

			if app.flags.json {
				return writeJSON(cmd, newProfileView(profile))
			}
			lines := []string{
				fmt.Sprintf("%s <%s>", profile.DisplayName(), profile.Email),
				"client: " + profile.ClientID,
				"business: " + profile.BusinessType,
			}
			if !profile.LoggedInAt.IsZero() {
				lines = append(lines, "logged in: "+profile.LoggedInAt.Local().Format(time.DateTime))
			}
			return writeLine(cmd, "%s", strings.Join(lines, "\n"))
		},
	}
}

func readLine(cmd *cobra.Command) (string, error) {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimRight(scanner.Text(), "\r"), nil
}
