package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/candorops/retrofit/internal/messages"
)

func newDetectCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.DetectUse,
		Short: messages.DetectShort,
		Args:  cobra.NoArgs,
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
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, messages.DetectFrameworkFmt, st.Framework)
			_, _ = fmt.Fprintf(out, messages.DetectLanguageFmt, st.Language)
			pm := st.PackageManager
			if pm == "" {
				pm = messages.DetectValueUnknown
			}
			_, _ = fmt.Fprintf(out, messages.DetectPackageMgrFmt, pm)
			return nil
		},
	}
}
