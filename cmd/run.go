package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sells-group/screening-cli/internal/model"
	"github.com/sells-group/screening-cli/internal/summary"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run extraction, screening, evaluation, and summary end to end",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		p, err := newPipeline(st)
		if err != nil {
			return err
		}

		res, err := p.Run(ctx)
		if err != nil {
			return err
		}

		summary.RenderSummary(os.Stdout, res.Summary)
		fmt.Println()
		printRejected(os.Stdout, res.Rejected)
		printOutputs(os.Stdout, res.Outputs)
		if res.RunID != "" {
			fmt.Printf("Run %s recorded.\n", res.RunID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func printRejected(w io.Writer, rejected []*model.RowError) {
	if len(rejected) == 0 {
		return
	}
	warn := color.New(color.FgYellow).SprintFunc()
	_, _ = fmt.Fprintf(w, "%s\n", warn(fmt.Sprintf("%d input row(s) rejected:", len(rejected))))
	for _, r := range rejected {
		_, _ = fmt.Fprintf(w, "  %s\n", r.Error())
	}
}

func printOutputs(w io.Writer, paths []string) {
	for _, p := range paths {
		_, _ = fmt.Fprintf(w, "Wrote %s\n", p)
	}
}
