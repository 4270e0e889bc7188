package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oascli/oascli/internal/command"
	"github.com/oascli/oascli/internal/request"
)

func registerAPICommands(root *cobra.Command, app *appState) {
	for _, res := range app.model.Resources {
		group := &cobra.Command{
			Use:           res.Name,
			Short:         "Operations on " + res.Name,
			SilenceUsage:  true,
			SilenceErrors: true,
		}
		for _, act := range res.Actions {
			group.AddCommand(newActionCmd(app, act))
		}
		root.AddCommand(group)
	}
}

func newActionCmd(app *appState, act *command.Action) *cobra.Command {
	use := act.Name
	for _, name := range act.RawPathArgs {
		use += " <" + name + ">"
	}
	short := strings.TrimSpace(act.Summary)
	if short == "" {
		short = act.Method + " " + act.Path
	}
	if act.Deprecated {
		short += " (deprecated)"
	}

	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		Long:          strings.TrimSpace(act.Description),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Positional arity is not enforced by cobra: a wrong count flows through
	// the request builder and comes back as a validation result, so --json
	// consumers still get an envelope.
	bindings := bindActionFlags(cmd, act)
	var curl bool
	cmd.Flags().BoolVar(&curl, "curl", false, "Print the equivalent curl command instead of sending the request")

	cmd.SetUsageFunc(actionUsage(act))

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		flags := make(map[string]any)
		for _, b := range bindings {
			b.collect(cmd, flags)
		}
		in := request.Input{
			Model:       app.model,
			Action:      act,
			Positionals: args,
			Flags:       flags,
			Globals:     app.globals(),
			Defaults:    app.defaults,
			Store:       app.store,
			ProfileName: app.opts.Profile,
		}
		return app.render(cmd, app.executor.Execute(cmd.Context(), in, curl))
	}
	return cmd
}

// flagBinding ties one registered flag to the value-map key the request
// builder expects: Param.Key for parameters, the dotted flag name for body
// fields. Only flags the user changed are collected.
type flagBinding struct {
	key  string
	name string

	s   *string
	i   *int64
	f   *float64
	b   *bool
	arr *arrayValue
}

func (b *flagBinding) collect(cmd *cobra.Command, flags map[string]any) {
	if !cmd.Flags().Changed(b.name) {
		return
	}
	switch {
	case b.s != nil:
		flags[b.key] = *b.s
	case b.i != nil:
		flags[b.key] = *b.i
	case b.f != nil:
		flags[b.key] = *b.f
	case b.b != nil:
		flags[b.key] = *b.b
	case b.arr != nil:
		flags[b.key] = b.arr.values()
	}
}

func bindActionFlags(cmd *cobra.Command, act *command.Action) []*flagBinding {
	bindings := make([]*flagBinding, 0, len(act.Flags)+len(act.BodyFlags))
	for i := range act.Flags {
		bindings = append(bindings, bindParamFlag(cmd, &act.Flags[i]))
	}
	for i := range act.BodyFlags {
		bindings = append(bindings, bindBodyFlag(cmd, &act.BodyFlags[i]))
	}
	return bindings
}

func bindParamFlag(cmd *cobra.Command, p *command.Param) *flagBinding {
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		desc = fmt.Sprintf("%s parameter %q", p.In, p.Name)
	}
	b := &flagBinding{key: p.Key, name: p.Flag}
	switch p.Type {
	case command.TypeBoolean:
		b.b = new(bool)
		cmd.Flags().BoolVar(b.b, p.Flag, false, desc)
	case command.TypeInteger:
		b.i = new(int64)
		cmd.Flags().Int64Var(b.i, p.Flag, 0, desc)
	case command.TypeNumber:
		b.f = new(float64)
		cmd.Flags().Float64Var(b.f, p.Flag, 0, desc)
	case command.TypeArray:
		b.arr = &arrayValue{}
		cmd.Flags().Var(b.arr, p.Flag, desc)
	default:
		b.s = new(string)
		cmd.Flags().StringVar(b.s, p.Flag, "", desc)
	}
	return b
}

func bindBodyFlag(cmd *cobra.Command, f *command.BodyFlag) *flagBinding {
	desc := strings.TrimSpace(f.Description)
	if desc == "" {
		desc = fmt.Sprintf("body field %q", strings.Join(f.Path, "."))
	}
	b := &flagBinding{key: f.Flag, name: f.Flag}
	switch f.Type {
	case command.TypeBoolean:
		b.b = new(bool)
		cmd.Flags().BoolVar(b.b, f.Flag, false, desc)
	case command.TypeInteger:
		b.i = new(int64)
		cmd.Flags().Int64Var(b.i, f.Flag, 0, desc)
	case command.TypeNumber:
		b.f = new(float64)
		cmd.Flags().Float64Var(b.f, f.Flag, 0, desc)
	default:
		b.s = new(string)
		cmd.Flags().StringVar(b.s, f.Flag, "", desc)
	}
	return b
}

// arrayValue is a pflag.Value that accumulates array parameter values. Each
// occurrence may be a single element, a comma list, or a whole JSON array.
type arrayValue struct {
	vals []string
}

func (a *arrayValue) String() string { return strings.Join(a.vals, ",") }

func (a *arrayValue) Type() string { return "strings" }

func (a *arrayValue) Set(s string) error {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
			for _, el := range arr {
				a.vals = append(a.vals, jsonElementString(el))
			}
			return nil
		}
	}
	if strings.Contains(s, ",") {
		a.vals = append(a.vals, strings.Split(s, ",")...)
		return nil
	}
	a.vals = append(a.vals, s)
	return nil
}

func (a *arrayValue) values() []string {
	return append([]string(nil), a.vals...)
}

func jsonElementString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}
