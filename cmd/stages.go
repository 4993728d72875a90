package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/screening-cli/internal/summary"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract pack-years, quit-years, and smoking status from notes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := newPipeline(nil)
		if err != nil {
			return err
		}
		ext, err := p.Extract(cmd.Context())
		if err != nil {
			return err
		}
		printRejected(os.Stdout, ext.Rejected)
		printOutputs(os.Stdout, []string{p.ExtractionPath()})
		return nil
	},
}

var eligibilityCmd = &cobra.Command{
	Use:   "eligibility",
	Short: "Screen the extraction output against the guideline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := newPipeline(nil)
		if err != nil {
			return err
		}
		screened, err := p.ScreenFile(cmd.Context())
		if err != nil {
			return err
		}
		eligible := 0
		for _, s := range screened {
			if s.Decision.Eligible {
				eligible++
			}
		}
		fmt.Printf("%d of %d patients eligible.\n", eligible, len(screened))
		printOutputs(os.Stdout, []string{p.EligibilityPath()})
		return nil
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compare the extraction output with reference labels",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := newPipeline(nil)
		if err != nil {
			return err
		}
		report, err := p.EvaluateFile(cmd.Context())
		if report != nil {
			summary.RenderAccuracy(os.Stdout, report)
		}
		return err
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Write summary statistics, Table 1, and ineligibility reasons",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := newPipeline(nil)
		if err != nil {
			return err
		}
		s, paths, err := p.SummarizeFile(cmd.Context())
		if err != nil {
			return err
		}
		summary.RenderSummary(os.Stdout, s)
		fmt.Println()
		printOutputs(os.Stdout, paths)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Report missing values, distributions, and a review sample of the eligibility output",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := newPipeline(nil)
		if err != nil {
			return err
		}
		screened, err := p.LoadScreened(cmd.Context())
		if err != nil {
			return err
		}
		summary.RenderValidation(os.Stdout, p.Validate(screened))
		return nil
	},
}

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Generate mock reference labels from the first patients",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("count") {
			cfg.Labels.Count, _ = cmd.Flags().GetInt("count")
			if cfg.Labels.Count < 0 {
				return eris.New("--count must be >= 0")
			}
		}
		p, err := newPipeline(nil)
		if err != nil {
			return err
		}
		n, err := p.GenerateLabels(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d labels to %s\n", n, cfg.Input.Labels)
		return nil
	},
}

func init() {
	labelsCmd.Flags().Int("count", 50, "number of patients to label; overrides labels.count")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(eligibilityCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(labelsCmd)
}

