package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldmark/fieldmark/pkg/fieldmark"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate <template.docx>",
	Short: "Statically inspect a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		templateBytes, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading template: %w", err)
		}

		report, err := newEngine().Validate(templateBytes)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if validateJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			printReport(out, report)
		}

		if !report.Valid {
			return fmt.Errorf("template is invalid (%d errors)", len(report.Errors))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "emit the report as JSON")
	rootCmd.AddCommand(validateCmd)
}

func printReport(out io.Writer, report *fieldmark.ValidationReport) {
	if report.Valid {
		fmt.Fprintln(out, "template is valid")
	} else {
		fmt.Fprintln(out, "template is INVALID")
	}
	for _, issue := range report.Errors {
		fmt.Fprintf(out, "error: %s\n", issue)
	}
	for _, issue := range report.Warnings {
		fmt.Fprintf(out, "warning: %s\n", issue)
	}
	s := report.Statistics
	fmt.Fprintf(out, "placeholders=%d conditions=%d loops=%d nested_loops=%d tables=%d aggregations=%d stylings=%d\n",
		s.Placeholders, s.Conditions, s.Loops, s.NestedLoops, s.Tables, s.Aggregations, s.Stylings)
	fmt.Fprintf(out, "complexity score: %d\n", s.Complexity)
}
