package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/candorops/retrofit/internal/apply"
	"github.com/candorops/retrofit/internal/messages"
	"github.com/candorops/retrofit/internal/terminal"
)

func newAddCmd(opts *cliOptions) *cobra.Command {
	var provider string
	var overwrite bool
	cmd := &cobra.Command{
		Use:   messages.AddUse,
		Short: messages.AddShort,
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
			summary, err := eng.ApplyPlan(st, p, apply.Options{Overwrite: overwrite})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range summary.Results {
				if r.Reason != "" {
					_, _ = fmt.Fprintf(out, messages.AddReasonFmt, statusLabel(r.Status), r.TargetPath, r.Reason)
				} else {
					_, _ = fmt.Fprintf(out, messages.AddResultFmt, statusLabel(r.Status), r.TargetPath)
				}
				if r.Diff != "" {
					_, _ = fmt.Fprintln(out, r.Diff)
				}
			}
			_, _ = fmt.Fprintf(out, messages.AddSummaryFmt,
				summary.Applied, summary.Skipped, summary.Conflicts, summary.Failed)
			if summary.HasConflicts() && !overwrite {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), messages.AddConflictHint)
			}
			if summary.HasFailures() {
				return &SilentExitError{Code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", messages.PlanFlagProvider)
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, messages.AddFlagOverwrite)
	return cmd
}

func statusLabel(s apply.Status) string {
	if !terminal.IsInteractive() {
		return s.String()
	}
	switch s {
	case apply.StatusApplied:
		return color.GreenString(s.String())
	case apply.StatusSkipped:
		return s.String()
	case apply.StatusConflict:
		return color.YellowString(s.String())
	case apply.StatusFailed:
		return color.RedString(s.String())
	default:
		return s.String()
	}
}
