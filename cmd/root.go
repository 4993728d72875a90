package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/screening-cli/internal/config"
)

var cfg *config.Config

var (
	flagInput     string
	flagLabels    string
	flagOutputDir string
	flagGuideline string
)

var rootCmd = &cobra.Command{
	Use:   "screening-cli",
	Short: "Lung cancer screening eligibility pipeline",
	Long: "Extracts smoking history from clinical notes, screens patients against the " +
		"lung cancer screening guideline, measures extraction accuracy, and summarizes the cohort.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlagOverrides(cmd, c)
		cfg = c

		if mode := configMode(cmd); mode != "" {
			if err := cfg.Validate(mode); err != nil {
				return err
			}
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagInput, "input", "", "patient file (.csv or .xlsx); overrides input.patients")
	pf.StringVar(&flagLabels, "labels", "", "reference label file; overrides input.labels")
	pf.StringVar(&flagOutputDir, "output-dir", "", "output directory; overrides output.dir")
	pf.StringVar(&flagGuideline, "guideline", "", "guideline YAML file; overrides eligibility.guideline_file")
}

func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		c.Input.Patients = flagInput
	}
	if flags.Changed("labels") {
		c.Input.Labels = flagLabels
	}
	if flags.Changed("output-dir") {
		c.Output.Dir = flagOutputDir
	}
	if flags.Changed("guideline") {
		c.Eligibility.GuidelineFile = flagGuideline
	}
}

// configMode maps a command to the settings it depends on. Commands that
// only print help return "".
func configMode(cmd *cobra.Command) string {
	if p := cmd.Parent(); p != nil && p.Name() == "runs" {
		return "runs"
	}
	switch name := cmd.Name(); name {
	case "run", "extract", "eligibility", "evaluate", "summarize", "labels", "validate", "runs":
		return name
	}
	return ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
