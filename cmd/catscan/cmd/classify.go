package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/meowai/catscan/internal/engine"
	"github.com/meowai/catscan/internal/labels"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [image...]",
	Short: "Classify cat photos into breed probabilities",
	Long: `Classify one or more photos against the bundled breed model and print
the ranked predictions. The engine initializes lazily on the first image.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringP("format", "f", "", "output format (text, json); overrides config")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	format := globalConfig.Output.Format
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		format = f
	}

	eng := engine.New(engine.Config{
		ModelsDir:  globalConfig.ModelsDir,
		NumThreads: globalConfig.Engine.NumThreads,
		UseGPU:     globalConfig.Engine.UseGPU,
		Warmup:     globalConfig.Engine.Warmup,
	})
	defer func() { _ = eng.Close() }()

	var failed bool
	for _, path := range args {
		outcome := eng.Recognize(path)
		if !outcome.OK && outcome.Reason != engine.ReasonNoConfidentPrediction {
			failed = true
		}
		if err := printOutcome(cmd, format, path, outcome); err != nil {
			return err
		}
	}
	if failed {
		return fmt.Errorf("one or more images could not be classified")
	}
	return nil
}

func printOutcome(cmd *cobra.Command, format, path string, outcome engine.Outcome) error {
	out := cmd.OutOrStdout()

	if format == "json" {
		payload := struct {
			Image  string         `json:"image"`
			Result engine.Outcome `json:"result"`
		}{path, outcome}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	prec := globalConfig.Output.ConfidencePrecision
	if !outcome.OK {
		if outcome.Reason == engine.ReasonNoConfidentPrediction {
			fmt.Fprintf(out, "%s: no confident match (%s)\n", path, outcome.Detail)
			return nil
		}
		fmt.Fprintf(out, "%s: unavailable (%s): %s\n", path, outcome.Reason, outcome.Detail)
		return nil
	}

	fmt.Fprintf(out, "%s: %s (%.*f) in %v\n",
		path, labels.DisplayName(outcome.Top.Label), prec, outcome.Top.Confidence, outcome.Elapsed)
	for _, alt := range outcome.Alternatives {
		fmt.Fprintf(out, "  %d. %s (%.*f)\n",
			alt.Rank, labels.DisplayName(alt.Label), prec, alt.Confidence)
	}
	return nil
}
