package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oascli/oascli/internal/command"
)

// actionUsage renders an action's usage with required flags split from the
// optional ones, followed by the persistent flags shared by every command.
func actionUsage(act *command.Action) func(*cobra.Command) error {
	required := requiredFlagNames(act)
	return func(cmd *cobra.Command) error {
		reqSet := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
		optSet := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
		// LocalFlags keeps the inherited persistent flags out of the split;
		// they get their own section below.
		cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
			if required[f.Name] {
				reqSet.AddFlag(f)
			} else {
				optSet.AddFlag(f)
			}
		})

		w := cmd.OutOrStderr()
		fmt.Fprintf(w, "Usage:\n  %s\n", cmd.UseLine())
		if reqSet.HasAvailableFlags() {
			fmt.Fprintf(w, "\nRequired:\n%s", reqSet.FlagUsages())
		}
		if optSet.HasAvailableFlags() {
			fmt.Fprintf(w, "\nOptions:\n%s", optSet.FlagUsages())
		}
		if global := cmd.InheritedFlags(); global.HasAvailableFlags() {
			fmt.Fprintf(w, "\nGlobal Flags:\n%s", global.FlagUsages())
		}
		return nil
	}
}

func requiredFlagNames(act *command.Action) map[string]bool {
	out := make(map[string]bool)
	for _, p := range act.Flags {
		if p.Required {
			out[p.Flag] = true
		}
	}
	for _, f := range act.BodyFlags {
		if f.Required {
			out[f.Flag] = true
		}
	}
	return out
}
