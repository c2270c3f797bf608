package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/candorops/retrofit/internal/manifest"
	"github.com/candorops/retrofit/internal/messages"
	"github.com/candorops/retrofit/internal/plan"
)

func newPlanCmd(opts *cliOptions) *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   messages.PlanUse,
		Short: messages.PlanShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := opts.resolveRoot()
			if err != nil {
				return err
			}
			eng, err := opts.newEngine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			st, err := eng.DetectStack(root)
			if err != nil {
				return err
			}
			p, err := eng.PlanFeature(args[0], provider, st)
			if err != nil {
				return err
			}
			printPlan(cmd, p, st.Framework, st.Language)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", messages.PlanFlagProvider)
	return cmd
}

func printPlan(cmd *cobra.Command, p plan.Plan, framework string, language string) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, messages.PlanHeaderFmt, p.Feature, p.Provider, framework, language)
	ops := p.Operations()
	if len(ops) == 0 {
		_, _ = fmt.Fprintln(out, messages.PlanEmpty)
		return
	}
	for _, op := range ops {
		if op.Action.Kind == manifest.ActionInstallDependency && op.Action.Dependency != nil {
			_, _ = fmt.Fprintf(out, messages.PlanOpDepFmt, op.Action.Kind.String(), op.TargetPath,
				op.Action.Dependency.Name, op.Action.Dependency.Version)
			continue
		}
		_, _ = fmt.Fprintf(out, messages.PlanOpFmt, op.Action.Kind.String(), op.TargetPath)
	}
}
