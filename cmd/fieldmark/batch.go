package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldmark/fieldmark/pkg/fieldmark"
)

var (
	batchOutputDir string
	batchSize      int
	batchDelay     time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <template.docx> <datasets.json>",
	Short: "Render one template against a list of datasets",
	Long: `batch reads a JSON array of data objects and renders the template
once per object. Outputs are written as output-<index>.docx in the
output directory; a failing dataset does not stop the rest.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		templateBytes, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading template: %w", err)
		}
		raw, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading datasets: %w", err)
		}
		var dataList []fieldmark.TemplateData
		if err := json.Unmarshal(raw, &dataList); err != nil {
			return fmt.Errorf("parsing datasets: %w", err)
		}

		if err := os.MkdirAll(batchOutputDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		results, err := newEngine().RenderBatch(ctx, templateBytes, dataList, fieldmark.BatchOptions{
			Size:  batchSize,
			Delay: batchDelay,
		})
		if err != nil && len(results) == 0 {
			return err
		}

		failures := 0
		for _, res := range results {
			if !res.Success {
				failures++
				fmt.Fprintf(cmd.ErrOrStderr(), "item %d failed: %v\n", res.Index, res.Err)
				continue
			}
			path := filepath.Join(batchOutputDir, fmt.Sprintf("output-%d.docx", res.Index))
			if err := os.WriteFile(path, res.Output, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rendered %d/%d datasets\n", len(results)-failures, len(results))
		if failures > 0 {
			return fmt.Errorf("%d datasets failed", failures)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutputDir, "output-dir", "o", ".", "directory for rendered documents")
	batchCmd.Flags().IntVar(&batchSize, "batch-size", 0, "items per batch before pausing (0 disables pacing)")
	batchCmd.Flags().DurationVar(&batchDelay, "batch-delay", 0, "pause between batches")
	rootCmd.AddCommand(batchCmd)
}
