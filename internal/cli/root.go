// Package cli implements bomctl, a command-line companion to the BOM viewer
// that reads, filters, edits and re-exports BOM CSV files offline.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/bomview/internal/core"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options holds the flags shared by every subcommand.
type options struct {
	debug  bool
	zapLog *zap.Logger
}

// NewRootCommand builds the bomctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "bomctl",
		Short:         "Inspect and edit bill-of-materials CSV files",
		Long:          "bomctl reads BOM CSV files with the columns name, description, quantity, cost_per_unit and fulfilled.\nUse - as FILE to read from standard input.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log, zl := newLogger(cmd.ErrOrStderr(), opts.debug)
			opts.zapLog = zl
			log = log.WithValues(commandKey, cmd.Name())
			cmd.SetContext(withLogger(cmd.Context(), log))
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.zapLog != nil {
				_ = opts.zapLog.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "write debug logs to stderr")

	root.AddCommand(
		newShowCommand(),
		newExportCommand(),
		newSummaryCommand(),
		newApplyCommand(),
	)
	return root
}

// Execute runs bomctl with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// readTable decodes path ("-" for stdin) into a loaded State.
func readTable(cmd *cobra.Command, path string) (core.State, error) {
	log := loggerFrom(cmd.Context())

	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return core.State{}, err
		}
		defer f.Close()
		r = f
	}

	res, err := core.DecodeLimited(r, 0)
	if err != nil {
		return core.State{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(res.Dropped) > 0 {
		log.Info("ignoring unknown columns", "file", path, "columns", res.Dropped)
	}
	log.V(1).Info("decoded table", "file", path, "rows", len(res.Rows), "columns", res.Columns)

	return core.Reduce(core.NewState(), core.Load{FileName: path, Rows: res.Rows})
}

// createOutput opens path for writing; "-" or "" is stdout.
func createOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
