package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oascli/oascli/internal/introspect"
	"github.com/oascli/oascli/internal/result"
)

func newSchemaCmd(app *appState) *cobra.Command {
	var minimal bool
	cmd := &cobra.Command{
		Use:           "__schema",
		Short:         "Print the machine-readable command catalog",
		Long:          "Emits the full catalog derived from the document: operations, naming\nplans, commands, servers and security schemes. Output is canonical JSON,\nbyte-stable for a given document.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.render(cmd, result.Data("schema", introspect.Payload(app.model, minimal)))
		},
	}
	cmd.Flags().BoolVar(&minimal, "min", false, "Emit the minimal catalog (identity and command names only)")
	return cmd
}
