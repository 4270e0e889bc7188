package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/oascli/oascli/internal/naming"
	"github.com/oascli/oascli/internal/spec"
)

func newSpecCmd(app *appState) *cobra.Command {
	specCmd := &cobra.Command{
		Use:           "spec",
		Short:         "OpenAPI document utilities (for packagers)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	specCmd.AddCommand(newSpecPackCmd(app))
	specCmd.AddCommand(newSpecVerifyCmd(app))
	return specCmd
}

// packConfig carries the pack-time defaults, read from OASCLI_NAME,
// OASCLI_SERVER, OASCLI_SERVER_VARS, OASCLI_AUTH and OASCLI_VERSION. Flags
// override the environment.
type packConfig struct {
	Name       string `envconfig:"NAME"`
	Server     string `envconfig:"SERVER"`
	ServerVars string `envconfig:"SERVER_VARS"`
	Auth       string `envconfig:"AUTH"`
	Version    string `envconfig:"VERSION"`
}

func newSpecPackCmd(app *appState) *cobra.Command {
	var (
		flags  packConfig
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Stage a document for an embedded single-API build",
		Long: "Copies the document named by --spec (or OASCLI_SPEC) into the embed\n" +
			"directory and prints the go build invocation that bakes in the name,\n" +
			"server and auth defaults.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg packConfig
			if err := envconfig.Process("oascli", &cfg); err != nil {
				return fmt.Errorf("spec pack: %w", err)
			}
			if cmd.Flags().Changed("name") {
				cfg.Name = flags.Name
			}
			if cmd.Flags().Changed("server") {
				cfg.Server = flags.Server
			}
			if cmd.Flags().Changed("server-vars") {
				cfg.ServerVars = flags.ServerVars
			}
			if cmd.Flags().Changed("auth") {
				cfg.Auth = flags.Auth
			}
			if cmd.Flags().Changed("build-version") {
				cfg.Version = flags.Version
			}

			source := app.opts.Spec
			if source == "" {
				return fmt.Errorf("spec pack: no document named; pass --spec <url|path> or set OASCLI_SPEC")
			}
			raw, err := fetchDocument(cmd.Context(), source)
			if err != nil {
				return fmt.Errorf("spec pack: %w", err)
			}

			// Validate before staging so a broken document never ships.
			doc, err := spec.Load(cmd.Context(), spec.Input{Embedded: string(raw), Logger: app.logger})
			if err != nil {
				return fmt.Errorf("spec pack: %w", err)
			}
			if cfg.Name == "" {
				cfg.Name = naming.Kebab(doc.Title())
			}
			if cfg.Name == "" {
				cfg.Name = "api"
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			for _, stale := range []string{"spec.json", "spec.yaml", "spec.yml"} {
				_ = os.Remove(filepath.Join(outDir, stale))
			}
			dest := filepath.Join(outDir, "spec"+documentExt(raw))
			if err := os.WriteFile(dest, raw, 0o644); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wrote %s\n", dest)
			fmt.Fprintf(out, "build with:\n  go build -ldflags %q -o %s .\n", packLDFlags(cfg), cfg.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.Name, "name", "", "Binary and command name (default: document title)")
	cmd.Flags().StringVar(&flags.Server, "server", "", "Baked-in server base URL")
	cmd.Flags().StringVar(&flags.ServerVars, "server-vars", "", "Baked-in server variables as name=value,name=value")
	cmd.Flags().StringVar(&flags.Auth, "auth", "", "Baked-in security scheme key")
	cmd.Flags().StringVar(&flags.Version, "build-version", "", "Version string for the packed binary")
	cmd.Flags().StringVar(&outDir, "out", filepath.Join("embedded", "assets"), "Embed directory to stage into")
	return cmd
}

func newSpecVerifyCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:           "verify",
		Short:         "Verify the configured document parses and derives a unique command tree",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireModel(app); err != nil {
				return err
			}
			m := app.model
			fmt.Fprintf(cmd.OutOrStdout(), "ok\t%s\tresources=%d\tactions=%d\toperations=%d\n",
				m.SpecID, len(m.Resources), len(m.Actions()), len(m.Operations))
			return nil
		},
	}
}

func fetchDocument(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("download %s: %s", source, resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(source)
}

// documentExt sniffs the staged filename extension from the first meaningful
// byte: JSON documents start with '{', everything else is treated as YAML.
func documentExt(raw []byte) string {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return ".json"
		default:
			return ".yaml"
		}
	}
	return ".yaml"
}

func packLDFlags(cfg packConfig) string {
	const embedPkg = "github.com/oascli/oascli/internal/embedspec"
	parts := []string{"-X " + embedPkg + ".cliName=" + cfg.Name}
	if cfg.Server != "" {
		parts = append(parts, "-X "+embedPkg+".defaultServer="+cfg.Server)
	}
	if cfg.ServerVars != "" {
		parts = append(parts, "-X "+embedPkg+".defaultServerVars="+cfg.ServerVars)
	}
	if cfg.Auth != "" {
		parts = append(parts, "-X "+embedPkg+".defaultAuth="+cfg.Auth)
	}
	if cfg.Version != "" {
		parts = append(parts, "-X github.com/oascli/oascli/internal/version.version="+cfg.Version)
	}
	return strings.Join(parts, " ")
}
