// Package cli implements the classpulse command line: offline analysis of
// exported sheets and small operator utilities.
package cli

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/classpulse-api/pkg/config"
	"github.com/noah-isme/classpulse-api/pkg/logger"
)

// NewRootCommand builds the command tree writing results to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "classpulse",
		Short:         "Class risk analytics from behaviour logs and gradebooks",
		Long:          "classpulse merges a behaviour export and a gradebook export per student and reports averages, trends, risk scores and grade/behaviour correlations.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().Bool("verbose", false, "Log ingestion details to stderr")

	root.AddCommand(newAnalyzeCommand())
	root.AddCommand(newSampleCommand())
	root.AddCommand(newTokenCommand())
	return root
}

// Execute runs the command line against os.Args.
func Execute(out io.Writer) error {
	return NewRootCommand(out).Execute()
}

// loadEnv reads configuration and builds a logger that stays quiet unless --verbose is set.
func loadEnv(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	cfg.Log.Format = "console"
	cfg.Log.Level = "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
