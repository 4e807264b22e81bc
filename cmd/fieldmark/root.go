package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fieldmark/fieldmark/pkg/fieldmark"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "fieldmark",
	Short: "Render and validate DOCX templates.",
	Long: `fieldmark fills Word templates with data. Templates carry ${...}
directives in their body text: interpolations with formatter pipes,
${#if} conditionals and ${#each} loops. Data comes from a JSON file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfiguration()
	},
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose trace logging to stderr")
}

// fileConfig is the YAML shape of a configuration file. File values
// layer over environment values; the --debug flag wins over both.
type fileConfig struct {
	Debug              *bool   `yaml:"debug"`
	MaxMergeIterations *int    `yaml:"max_merge_iterations"`
	StylingEmit        *string `yaml:"styling_emit"`
}

func loadConfiguration() error {
	cfg := fieldmark.ConfigFromEnvironment()

	if cfgFile != "" {
		raw, err := os.ReadFile(cfgFile)
		if err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
		if fc.Debug != nil {
			cfg.Debug = *fc.Debug
		}
		if fc.MaxMergeIterations != nil {
			cfg.MaxMergeIterations = *fc.MaxMergeIterations
		}
		if fc.StylingEmit != nil {
			cfg.StylingEmit = *fc.StylingEmit
		}
	}

	if debug {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fieldmark.SetGlobalConfig(cfg)
	return nil
}

func newEngine() *fieldmark.Engine {
	return fieldmark.NewWithOptions(
		fieldmark.WithConfig(fieldmark.GetGlobalConfig()),
		fieldmark.WithSink(fieldmark.NewLogSink(nil)),
	)
}
