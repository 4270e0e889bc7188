// Package cmd assembles the cobra command tree: one subcommand per resource,
// one per action, plus the login/logout/whoami, __schema, mcp, spec, and
// version builtins. The tree is derived from the OpenAPI document before
// cobra parses anything, so the spec source is discovered by a raw argument
// scan rather than a flag lookup.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oascli/oascli/internal/command"
	"github.com/oascli/oascli/internal/embedspec"
	"github.com/oascli/oascli/internal/httpexec"
	"github.com/oascli/oascli/internal/profile"
	"github.com/oascli/oascli/internal/render"
	"github.com/oascli/oascli/internal/request"
	"github.com/oascli/oascli/internal/result"
	"github.com/oascli/oascli/internal/spec"
	"github.com/oascli/oascli/internal/version"
)

// errSilent signals a non-zero exit after the renderer has already written
// the failure. main prints nothing for an empty error message.
var errSilent = errors.New("")

type rootOptions struct {
	Spec        string
	Server      string
	ServerVars  []string
	Headers     []string
	Auth        string
	BearerToken string
	Username    string
	Password    string
	APIKey      string
	Profile     string
	AutoAuth    bool
	JSON        bool
	Verbose     bool
}

type appState struct {
	opts     rootOptions
	cliName  string
	logger   *slog.Logger
	model    *command.Model
	executor *httpexec.Executor
	store    profile.Store
	writable profile.WritableStore
	defaults request.Defaults
}

func (a *appState) globals() request.Globals {
	return request.Globals{
		Server:      a.opts.Server,
		ServerVars:  a.opts.ServerVars,
		Headers:     a.opts.Headers,
		Auth:        a.opts.Auth,
		BearerToken: a.opts.BearerToken,
		Username:    a.opts.Username,
		Password:    a.opts.Password,
		APIKey:      a.opts.APIKey,
		AutoAuth:    a.opts.AutoAuth,
	}
}

// render writes the result through the renderer and converts a non-zero exit
// code into the silent error so cobra propagates failure without re-printing.
func (a *appState) render(cmd *cobra.Command, res result.Result) error {
	r := render.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), render.Options{
		JSON:    a.opts.JSON,
		CLIName: a.cliName,
	})
	if code := r.Render(res); code != 0 {
		return errSilent
	}
	return nil
}

// NewRootCmd builds the command tree from os.Args.
func NewRootCmd() (*cobra.Command, error) {
	return newRootCmd(os.Args[1:])
}

func newRootCmd(args []string) (*cobra.Command, error) {
	level := slog.LevelWarn
	if verboseFromArgs(args) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	app := &appState{
		opts: rootOptions{
			Spec:    specFromArgs(args),
			Verbose: level == slog.LevelDebug,
		},
		cliName: embedspec.CLIName(),
		logger:  logger,
		defaults: request.Defaults{
			Server:     embedspec.DefaultServer(),
			ServerVars: embedspec.DefaultServerVars(),
			Auth:       embedspec.DefaultAuth(),
		},
	}

	if path, err := profile.DefaultPath(); err == nil {
		fs := profile.NewFileStore(path)
		app.store, app.writable = fs, fs
	} else {
		logger.Warn("profile store unavailable", "error", err)
	}

	root := &cobra.Command{
		Use:   app.cliName,
		Short: "A command line for an OpenAPI-described service",
		Long: app.cliName + " turns an OpenAPI document into commands.\n\n" +
			"Usage shape:\n" +
			"  " + app.cliName + " <resource> <action> [positionals...] [flags]\n\n" +
			"The document comes from an embedded build, --spec <url|path>, or the\n" +
			"OASCLI_SPEC environment variable. Authentication can be passed per\n" +
			"invocation (--bearer-token, --username/--password, --api-key) or stored\n" +
			"with 'login' and selected with --auth/--profile.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&app.opts.Spec, "spec", app.opts.Spec, "OpenAPI document URL or file path (or set OASCLI_SPEC)")
	pf.StringVar(&app.opts.Server, "server", "", "Override the server base URL")
	pf.StringArrayVar(&app.opts.ServerVars, "server-var", nil, "Server template variable as name=value (repeatable)")
	pf.StringArrayVar(&app.opts.Headers, "header", nil, "Extra request header as 'Name: Value' (repeatable)")
	pf.StringVar(&app.opts.Auth, "auth", "", "Security scheme key to authenticate with")
	pf.StringVar(&app.opts.BearerToken, "bearer-token", "", "Bearer token for http bearer schemes")
	pf.StringVar(&app.opts.BearerToken, "oauth-token", "", "Alias for --bearer-token")
	_ = pf.MarkHidden("oauth-token")
	pf.StringVar(&app.opts.Username, "username", "", "Username for http basic schemes")
	pf.StringVar(&app.opts.Password, "password", "", "Password for http basic schemes")
	pf.StringVar(&app.opts.APIKey, "api-key", "", "Credential for apiKey schemes")
	pf.StringVar(&app.opts.Profile, "profile", "", "Named profile for stored server/auth/token")
	pf.BoolVar(&app.opts.AutoAuth, "auto-auth", false, "Use a stored token for the first bearer-compatible scheme when none is selected")
	pf.BoolVar(&app.opts.JSON, "json", false, "Emit a machine-readable JSON envelope")
	pf.BoolVar(&app.opts.Verbose, "verbose", app.opts.Verbose, "Enable debug logging on stderr")

	root.Flags().BoolP("version", "v", false, "Print the version")
	root.Version = version.Version()
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newSpecCmd(app))

	doc, err := spec.Load(context.Background(), spec.Input{
		Spec:     app.opts.Spec,
		Embedded: embedspec.Document(),
		Logger:   logger,
	})
	if errors.Is(err, spec.ErrNoSpec) {
		// Builtins only. Resource commands need a document.
		root.Long += "\n\nNo OpenAPI document is configured; only the builtin commands are available."
		return root, nil
	}
	if err != nil {
		return nil, err
	}

	model, err := command.Build(doc)
	if err != nil {
		return nil, err
	}
	app.model = model
	app.executor = &httpexec.Executor{
		Fetcher:   &http.Client{},
		Logger:    logger,
		UserAgent: version.UserAgent(),
	}

	root.AddCommand(newLoginCmd(app))
	root.AddCommand(newLogoutCmd(app))
	root.AddCommand(newWhoamiCmd(app))
	root.AddCommand(newSchemaCmd(app))
	root.AddCommand(newMCPCmd(app))
	registerAPICommands(root, app)

	return root, nil
}

// specFromArgs scans raw arguments for --spec before cobra parses them; the
// command tree is derived from the document, so the source must be known
// first. OASCLI_SPEC is the fallback; an embedded document overrides both.
func specFromArgs(args []string) string {
	for i, a := range args {
		if a == "--spec" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(a, "--spec="); ok {
			return v
		}
	}
	return os.Getenv("OASCLI_SPEC")
}

func verboseFromArgs(args []string) bool {
	for _, a := range args {
		if a == "--verbose" || a == "--verbose=true" {
			return true
		}
	}
	return false
}

// requireModel guards builtins that need a loaded document.
func requireModel(app *appState) error {
	if app.model == nil {
		return fmt.Errorf("no OpenAPI document configured; pass --spec or set OASCLI_SPEC")
	}
	return nil
}
