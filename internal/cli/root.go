// Package cli implements crmctl, a terminal client over the CRM API built on
// the client entity stores.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/cli/formatter"
	"github.com/ledgerline/crm-api/internal/client"
	"github.com/ledgerline/crm-api/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// App carries the dependencies shared by every command. The root command
// fills Logger, State and Session before any subcommand runs.
type App struct {
	HTTPClient    *http.Client
	IsInteractive func() bool

	Logger  *zap.Logger
	State   *client.AppState
	Session *Session

	server      string
	apiKey      string
	sessionPath string
}

// NewRootCmd creates the top-level "crmctl" command and registers all
// subcommands against app.
func NewRootCmd(app *App) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CRMCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "crmctl",
		Short:         "Terminal client for the CRM API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd, v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("server", "http://localhost:8080", "API base URL")
	flags.String("api-key", "", "Admin API key, sent as x-api-key instead of the session token")
	flags.String("session", DefaultSessionPath(), "Session file written by login")
	flags.BoolP("verbose", "v", false, "Verbose output")
	for _, name := range []string{"server", "api-key", "session", "verbose"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newClientCmd(app),
		newLeadCmd(app),
		newVendorCmd(app),
		newRequirementCmd(app),
		newQuoteCmd(app),
		newSalesOrderCmd(app),
		newExpenseCmd(app),
		newUserCmd(app),
	)
	return root
}

func (app *App) setup(cmd *cobra.Command, v *viper.Viper) error {
	verbose := v.GetBool("verbose")
	if app.Logger == nil {
		app.Logger = logger.NewCLILogger(verbose)
	}

	app.sessionPath = v.GetString("session")
	session, err := LoadSession(app.sessionPath)
	if err != nil {
		return err
	}
	app.Session = session

	app.server = strings.TrimRight(v.GetString("server"), "/")
	if !v.IsSet("server") && session.Server != "" {
		app.server = session.Server
	}
	app.apiKey = v.GetString("api-key")

	api := client.NewAPIClient(app.server, app.HTTPClient, app.Logger)
	if app.apiKey != "" {
		api.SetAPIKey(app.apiKey)
	} else if session.Token != "" && session.Server == app.server {
		api.SetToken(session.Token)
	}

	notifier := &consoleNotifier{w: cmd.ErrOrStderr(), verbose: verbose}
	app.State = client.NewAppState(api, notifier, app.Logger)
	return nil
}

func (app *App) interactive() bool {
	return app.IsInteractive != nil && app.IsInteractive()
}

// caller is who the row actions are gated for; nil when unknown
func (app *App) caller() *auth.UserContext {
	if app.apiKey != "" {
		return auth.SystemUser("")
	}
	return app.Session.Caller()
}

func crmHuhTheme() *huh.Theme {
	t := huh.ThemeBase()
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorAccent).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorAccent)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorAccent)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	return t
}

func newLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" && app.interactive() {
				form := huh.NewForm(huh.NewGroup(
					huh.NewInput().Title("Email").Value(&email),
					huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
				)).WithTheme(crmHuhTheme()).WithShowHelp(false)
				if err := form.Run(); err != nil {
					return err
				}
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}

			ctx := cmd.Context()
			resp, err := app.State.API.SignIn(ctx, email, password)
			if err != nil {
				return err
			}
			me, err := app.State.API.Me(ctx)
			if err != nil {
				return err
			}

			app.Session.Server = app.server
			app.Session.Token = resp.Token
			app.Session.User = me
			if err := app.Session.Save(app.sessionPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", me.FullName, me.Permission)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password; prompted when omitted on a terminal")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session token and forget it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.signOut(cmd.Context(), cmd)
		},
	}
}

func (app *App) signOut(ctx context.Context, cmd *cobra.Command) error {
	if app.Session.Token != "" {
		if err := app.State.API.SignOut(ctx); err != nil {
			app.Logger.Warn("server sign-out failed, dropping local session anyway", zap.Error(err))
		}
	}
	if err := ClearSession(app.sessionPath); err != nil {
		return err
	}
	app.Session = &Session{}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := app.State.API.Me(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.StyleBold.Render(me.FullName))
			fmt.Fprintf(out, "%s  %s\n", me.Email, formatter.StyleDim.Render(string(me.Permission)))
			return nil
		},
	}
}
