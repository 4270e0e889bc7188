package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oascli/oascli/internal/profile"
	"github.com/oascli/oascli/internal/result"
)

func newLoginCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:           "login [token]",
		Short:         "Store an API token for the current profile",
		Long:          "Stores a token keyed by document identity and profile. The token comes\nfrom the argument or, when piped, from stdin.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = strings.TrimSpace(args[0])
			}
			if token == "" {
				read, err := tokenFromStdin(cmd)
				if err != nil {
					return app.render(cmd, result.FromError(err))
				}
				token = read
			}
			if token == "" {
				return app.render(cmd, result.Error("login: empty token"))
			}
			if app.writable == nil {
				return app.render(cmd, result.Error("login: profile store unavailable"))
			}
			name := profile.ResolveName(app.store, app.opts.Profile)
			if err := app.writable.SetToken(app.model.SpecID, name, token); err != nil {
				return app.render(cmd, result.FromError(err))
			}
			return app.render(cmd, result.Data("login", map[string]any{
				"profile": name,
				"specId":  app.model.SpecID,
			}))
		},
	}
}

func newLogoutCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Remove the stored token for the current profile",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.writable == nil {
				return app.render(cmd, result.Error("logout: profile store unavailable"))
			}
			name := profile.ResolveName(app.store, app.opts.Profile)
			if err := app.writable.DeleteToken(app.model.SpecID, name); err != nil {
				return app.render(cmd, result.FromError(err))
			}
			return app.render(cmd, result.Data("logout", map[string]any{
				"profile": name,
				"specId":  app.model.SpecID,
			}))
		},
	}
}

func newWhoamiCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Show the active profile and whether a token is stored",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := profile.ResolveName(app.store, app.opts.Profile)
			data := map[string]any{
				"profile":     name,
				"specId":      app.model.SpecID,
				"tokenStored": false,
			}
			if app.store != nil {
				if p, ok, err := app.store.Profile(name); err == nil && ok {
					if p.Server != "" {
						data["server"] = p.Server
					}
					if p.AuthScheme != "" {
						data["authScheme"] = p.AuthScheme
					}
				}
				if _, ok, err := app.store.Token(app.model.SpecID, name); err == nil && ok {
					data["tokenStored"] = true
				}
			}
			return app.render(cmd, result.Data("whoami", data))
		},
	}
}

// tokenFromStdin reads a piped token. An interactive terminal is refused so
// the CLI never blocks waiting for input.
func tokenFromStdin(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", fmt.Errorf("login: no token given; pass it as an argument or pipe it on stdin")
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("login: read token from stdin: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
