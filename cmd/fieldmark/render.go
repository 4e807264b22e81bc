package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldmark/fieldmark/pkg/fieldmark"
)

var renderOutput string

var renderCmd = &cobra.Command{
	Use:   "render <template.docx> <data.json>",
	Short: "Render a template with one dataset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		templateBytes, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading template: %w", err)
		}
		data, err := readDataFile(args[1])
		if err != nil {
			return err
		}

		output, err := newEngine().Render(templateBytes, data)
		if err != nil {
			return err
		}
		if err := os.WriteFile(renderOutput, output, 0o644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rendered %s (%d bytes)\n", renderOutput, len(output))
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "output.docx", "output file path")
	rootCmd.AddCommand(renderCmd)
}

func readDataFile(path string) (fieldmark.TemplateData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}
	var data fieldmark.TemplateData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing data: %w", err)
	}
	return data, nil
}
