package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"spectraweb/internal/aggregate"
	"spectraweb/internal/predict"
)

var predictJSON bool

var predictCmd = &cobra.Command{
	Use:   "predict [file]",
	Short: "Validate a spectral dataset and print the recommendations",
	Long: `Runs the same workflow as the upload form against a local file.

Example:
  spectraweb predict samples.csv
  spectraweb predict --json samples.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		f, _, aggregated := newForm(cfg, logger)

		results, err := f.Submit(cmd.Context(), filepath.Base(args[0]), data)
		if err != nil {
			return err
		}

		if predictJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		return printResults(cmd.OutOrStdout(), results, aggregated)
	},
}

func init() {
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "print results as JSON")
}

func printResults(out io.Writer, results []predict.Result, aggregated bool) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := "Plastic_Type\tRecommended_Microbe\tDegradation_Progress\tOptimal_pH\tOptimal_Temp\tMessage"
	if aggregated {
		header += "\tcount"
	}
	fmt.Fprintln(tw, header)
	for _, r := range results {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s",
			r.PlasticType, r.RecommendedMicrobe, r.DegradationProgress, r.OptimalPH, r.OptimalTemp, r.Message)
		if aggregated {
			line += fmt.Sprintf("\t%d", r.Count)
		}
		fmt.Fprintln(tw, line)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := aggregate.Summarize(results)
	_, err := fmt.Fprintf(out, "\n%d samples, %d plastic types, mean progress %.1f%%, best %.1f%%\n",
		s.Samples, s.Groups, s.MeanProgress, s.MaxProgress)
	return err
}
