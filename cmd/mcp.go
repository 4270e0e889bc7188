package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oascli/oascli/internal/mcpbridge"
)

func newMCPCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:           "mcp",
		Short:         "Serve every action as an MCP tool over stdio",
		Long:          "Runs a Model Context Protocol server on stdin/stdout. Each action is\nexposed as one tool; global auth and server flags apply to every call.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mcpbridge.ServeStdio(cmd.Context(), mcpbridge.Config{
				Model:    app.model,
				Executor: app.executor,
				Globals:  app.globals(),
				Defaults: app.defaults,
				Store:    app.store,
				Profile:  app.opts.Profile,
				Logger:   app.logger.With("component", "mcp"),
			}, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
