package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/candorops/retrofit/internal/engine"
	"github.com/candorops/retrofit/internal/logging"
	"github.com/candorops/retrofit/internal/messages"
)

// getwd is replaceable in tests.
var getwd = os.Getwd

// cliOptions carries the persistent flags shared by every subcommand.
type cliOptions struct {
	root    string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.root, "root", "", messages.RootFlagRoot)
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, messages.RootFlagVerbose)
	cmd.AddCommand(newDetectCmd(opts))
	cmd.AddCommand(newFeaturesCmd(opts))
	cmd.AddCommand(newPlanCmd(opts))
	cmd.AddCommand(newAddCmd(opts))
	return cmd
}

// resolveRoot expands and absolutizes the --root flag, defaulting to the
// current directory.
func (o *cliOptions) resolveRoot() (string, error) {
	if o.root == "" {
		return getwd()
	}
	expanded, err := homedir.Expand(o.root)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}

// newEngine builds an engine with the embedded defaults. warn receives
// non-fatal detection anomalies.
func (o *cliOptions) newEngine(warn io.Writer) (*engine.Engine, error) {
	log, err := logging.New(o.verbose)
	if err != nil {
		return nil, err
	}
	return engine.New(nil, nil, nil, warn, log)
}
