package cli

import (
	"github.com/spf13/cobra"

	"github.com/noah-isme/classpulse-api/internal/ingest"
	"github.com/noah-isme/classpulse-api/internal/service"
)

func newSampleCommand() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Analyse the built-in sample class",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			behavior, grades := ingest.SampleData()
			opts.classID = "sample"
			ingestor := ingest.NewIngestor(ingest.DefaultClassifier(), ingest.Options{Logger: log})
			return runAnalysis(cmd.OutOrStdout(), ingestor, behavior, grades, service.RiskSettingsFromConfig(cfg.Risk), opts, log)
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format: json, csv or pdf")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}
