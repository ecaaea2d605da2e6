package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spectraweb/internal/config"
	"spectraweb/internal/form"
	"spectraweb/internal/logging"
	"spectraweb/internal/predict"
	"spectraweb/internal/spectra"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spectraweb",
	Short: "Microplastic bioremediation predictor",
	Long: `spectraweb validates spectral CSV datasets (band1..bandN headers),
sends the samples to a plastic identification service and reports the
recommended microbe and expected degradation for each plastic type.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "spectraweb.yaml", "path to YAML config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, predictCmd, backendCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newForm wires the parser, the prediction client and the aggregation
// switch from the loaded config. Aggregation only applies to the
// per-sample pipeline; the other contracts already return a report.
func newForm(cfg *config.Config, logger *zap.Logger) (*form.Form, *spectra.Parser, bool) {
	parser := spectra.NewParser()
	parser.MaxRows = cfg.Upload.MaxRows
	parser.DetectDelimiter = cfg.Upload.DetectDelimiter

	mode := predict.Mode(cfg.Backend.Mode)
	client := predict.NewClient(cfg.Backend.URL, mode, conditions(cfg), logger.Named("predict"))
	aggregated := cfg.Backend.Aggregate && mode == predict.ModePipeline

	return form.New(parser, client, aggregated, logger.Named("form")), parser, aggregated
}

func conditions(cfg *config.Config) predict.Conditions {
	return predict.Conditions{
		PH:          cfg.Conditions.PH,
		Temp:        cfg.Conditions.Temp,
		ElapsedDays: cfg.Conditions.ElapsedDays,
	}
}
