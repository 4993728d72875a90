package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/screening-cli/internal/accuracy"
	"github.com/sells-group/screening-cli/internal/model"
	"github.com/sells-group/screening-cli/internal/summary"
)

// Result is the outcome of an end-to-end run.
type Result struct {
	RunID    string
	Screened []model.ScreenedRecord
	Rejected []*model.RowError
	Summary  summary.Summary
	Accuracy *accuracy.Report
	Outputs  []string
	Duration time.Duration
}

// Run executes every stage. Evaluation is skipped when the label file does
// not exist; a label file that shares no names with the patients is logged
// and reported as NoData rather than failing the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := zap.L().With(zap.String("input", p.cfg.Input.Patients))
	log.Info("pipeline: starting run")

	res := &Result{}
	if p.store != nil {
		run, err := p.store.CreateRun(ctx, model.RunInput{
			InputPath:     p.cfg.Input.Patients,
			LabelsPath:    p.cfg.Input.Labels,
			GuidelinePath: p.cfg.Eligibility.GuidelineFile,
			OutputDir:     p.cfg.Output.Dir,
		})
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		res.RunID = run.ID
		log = log.With(zap.String("run_id", run.ID))
	}

	err := p.run(ctx, res)
	res.Duration = time.Since(start)
	if err == nil && res.RunID != "" {
		err = p.persist(ctx, res)
	}
	if err != nil {
		if res.RunID != "" {
			if failErr := p.store.FailRun(context.WithoutCancel(ctx), res.RunID, err.Error()); failErr != nil {
				log.Warn("pipeline: failed to record run failure", zap.Error(failErr))
			}
		}
		return nil, err
	}

	log.Info("pipeline: run complete",
		zap.Int("screened", len(res.Screened)),
		zap.Int("eligible", res.Summary.Eligible.Count),
		zap.Int("rejected", len(res.Rejected)),
		zap.Duration("elapsed", res.Duration),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, res *Result) error {
	ext, err := p.Extract(ctx)
	if err != nil {
		return err
	}
	res.Rejected = ext.Rejected
	res.Outputs = append(res.Outputs, p.ExtractionPath())

	res.Screened, err = p.Screen(ext.Records, ext.Results)
	if err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, p.EligibilityPath())

	if p.labelsPresent() {
		res.Accuracy, err = p.Evaluate(ctx, ext.Results)
		switch {
		case errors.Is(err, accuracy.ErrNoData):
			zap.L().Warn("pipeline: labels share no names with patients", zap.String("labels", p.cfg.Input.Labels))
		case err != nil:
			return err
		}
	} else {
		zap.L().Info("pipeline: no label file, skipping evaluation", zap.String("labels", p.cfg.Input.Labels))
	}

	var paths []string
	res.Summary, paths, err = p.Summarize(res.Screened, res.Accuracy)
	if err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, paths...)
	return nil
}

func (p *Pipeline) persist(ctx context.Context, res *Result) error {
	if _, err := p.store.SaveDecisions(ctx, res.RunID, res.Screened); err != nil {
		return eris.Wrap(err, "pipeline: save decisions")
	}
	if err := p.store.CompleteRun(ctx, res.RunID, runResult(res)); err != nil {
		return eris.Wrap(err, "pipeline: complete run")
	}
	return nil
}

func runResult(res *Result) *model.RunResult {
	rr := &model.RunResult{
		Total:      res.Summary.TotalPatients,
		Eligible:   res.Summary.Eligible.Count,
		Ineligible: res.Summary.Ineligible.Count,
		Rejected:   len(res.Rejected),
		Reasons:    make(map[string]int, len(res.Summary.IneligibilityReasons)),
		DurationMs: res.Duration.Milliseconds(),
	}
	for _, r := range res.Summary.IneligibilityReasons {
		rr.Reasons[string(r.Reason)] = r.Count
	}
	if res.Accuracy != nil && !res.Accuracy.NoData {
		rr.Accuracy = make(map[string]float64, len(res.Accuracy.Metrics))
		for field, m := range res.Accuracy.Metrics {
			rr.Accuracy[field] = m.F1
		}
	}
	return rr
}
