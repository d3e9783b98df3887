package cmd

import (
	"fmt"

	"github.com/meowai/catscan/internal/assets"
	"github.com/meowai/catscan/internal/labels"
	"github.com/meowai/catscan/internal/modelpath"
	"github.com/spf13/cobra"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Print the breed label table",
	Long:  `Resolve and print the packaged label table with output indices.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		modelsDir := modelpath.Dir(globalConfig.ModelsDir)
		resolver := assets.NewResolver(assets.DefaultRoots(modelsDir)...)

		data, err := resolver.Resolve(modelpath.LabelsLogicalPath)
		if err != nil {
			return fmt.Errorf("failed to resolve label file: %w", err)
		}
		table := labels.Parse(data)
		for i, name := range table.Names() {
			fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-24s %s\n", i, name, labels.DisplayName(name))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d breeds\n", table.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(labelsCmd)
}
