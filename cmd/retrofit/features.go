package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/candorops/retrofit/internal/messages"
)

func newFeaturesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.FeaturesUse,
		Short: messages.FeaturesShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.newEngine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range eng.ListFeatures() {
				label := f.Description
				if label == "" {
					label = f.DisplayName
				}
				_, _ = fmt.Fprintf(out, messages.FeaturesLineFmt, f.ID, label)
				_, _ = fmt.Fprintf(out, messages.FeaturesDescFmt, strings.Join(f.Providers(), ", "))
			}
			return nil
		},
	}
}
