// Package pipeline wires the screening stages together: load patients,
// extract smoking history, screen against the guideline, evaluate against
// reference labels, summarize, and record the run.
package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/screening-cli/internal/accuracy"
	"github.com/sells-group/screening-cli/internal/augment"
	"github.com/sells-group/screening-cli/internal/config"
	"github.com/sells-group/screening-cli/internal/dataset"
	"github.com/sells-group/screening-cli/internal/eligibility"
	"github.com/sells-group/screening-cli/internal/extract"
	"github.com/sells-group/screening-cli/internal/model"
	"github.com/sells-group/screening-cli/internal/store"
	"github.com/sells-group/screening-cli/internal/summary"
	"github.com/sells-group/screening-cli/pkg/anthropic"
)

// Pipeline runs the screening stages with one configuration.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	extractor *extract.Extractor
	augmenter *augment.Claude
	guideline eligibility.Guideline
	labels    accuracy.LabelPolicy
}

// New builds a Pipeline. st may be nil to skip run history. aiClient is only
// used when extract.augment is enabled.
func New(cfg *config.Config, st store.Store, aiClient anthropic.Client) (*Pipeline, error) {
	g, err := eligibility.LoadGuideline(cfg.Eligibility.GuidelineFile)
	if err != nil {
		return nil, err
	}
	policy, err := accuracy.ParseLabelPolicy(cfg.Accuracy.LabelPolicy)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: label policy")
	}

	p := &Pipeline{cfg: cfg, store: st, guideline: g, labels: policy}

	opts := []extract.Option{
		extract.WithPatterns(cfg.Extract.PackYearsPattern, cfg.Extract.QuitYearsPattern),
		extract.WithPolicy(extract.AbsentPackYearsPolicy(cfg.Extract.AbsentPackYears)),
	}
	if cfg.Extract.Augment && aiClient != nil {
		p.augmenter = augment.New(aiClient, augment.Config{
			Model:             cfg.Anthropic.Model,
			MaxTokens:         cfg.Anthropic.MaxTokens,
			RequestsPerSecond: cfg.Anthropic.RequestsPerSecond,
			MaxAttempts:       cfg.Anthropic.MaxAttempts,
		})
		opts = append(opts, extract.WithAugmenter(p.augmenter))
	}
	p.extractor, err = extract.New(opts...)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Guideline returns the guideline decisions are made against.
func (p *Pipeline) Guideline() eligibility.Guideline {
	return p.guideline
}

// ExtractionPath is where extraction output is written.
func (p *Pipeline) ExtractionPath() string {
	return filepath.Join(p.cfg.Output.Dir, p.cfg.Output.Extraction)
}

// EligibilityPath is where screening output is written.
func (p *Pipeline) EligibilityPath() string {
	return filepath.Join(p.cfg.Output.Dir, p.cfg.Output.Eligibility)
}

func (p *Pipeline) readOpts() dataset.Options {
	return dataset.Options{Charset: p.cfg.Input.Charset, Sheet: p.cfg.Input.Sheet}
}

// Extracted is the outcome of the extraction stage.
type Extracted struct {
	Records  []model.PatientRecord
	Results  []model.ExtractionResult
	Rejected []*model.RowError
}

// Extract loads the patient file, extracts every note, and writes the
// extraction output.
func (p *Pipeline) Extract(ctx context.Context) (*Extracted, error) {
	records, rejected, err := dataset.ReadPatients(ctx, p.cfg.Input.Patients, p.readOpts())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := p.extractor.Run(ctx, records, extract.RunOptions{Concurrency: p.cfg.Extract.Concurrency})
	if err != nil {
		return nil, err
	}
	if p.augmenter != nil {
		p.augmenter.LogUsage()
	}

	if err := dataset.WriteExtraction(p.ExtractionPath(), records, results); err != nil {
		return nil, err
	}
	zap.L().Info("pipeline: extraction complete",
		zap.Int("records", len(records)),
		zap.Int("rejected", len(rejected)),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("output", p.ExtractionPath()),
	)
	return &Extracted{Records: records, Results: results, Rejected: rejected}, nil
}

// Screen evaluates extracted records and writes the eligibility output.
func (p *Pipeline) Screen(records []model.PatientRecord, results []model.ExtractionResult) ([]model.ScreenedRecord, error) {
	screened, err := eligibility.Screen(p.guideline, records, results)
	if err != nil {
		return nil, err
	}
	if err := dataset.WriteEligibility(p.EligibilityPath(), screened); err != nil {
		return nil, err
	}
	zap.L().Info("pipeline: screening complete",
		zap.Int("records", len(screened)),
		zap.String("output", p.EligibilityPath()),
	)
	return screened, nil
}

// ScreenFile screens a previously written extraction output.
func (p *Pipeline) ScreenFile(ctx context.Context) ([]model.ScreenedRecord, error) {
	records, results, rejected, err := dataset.ReadExtraction(ctx, p.ExtractionPath(), p.readOpts())
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		zap.L().Warn("pipeline: extraction output has rejected rows", zap.Int("rejected", len(rejected)))
	}
	return p.Screen(records, results)
}

// LoadScreened reads a previously written eligibility output.
func (p *Pipeline) LoadScreened(ctx context.Context) ([]model.ScreenedRecord, error) {
	screened, rejected, err := dataset.ReadScreened(ctx, p.EligibilityPath(), p.readOpts())
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		zap.L().Warn("pipeline: eligibility output has rejected rows", zap.Int("rejected", len(rejected)))
	}
	return screened, nil
}

// Evaluate compares predicted values with the reference label file. A
// report with NoData set is returned alongside accuracy.ErrNoData.
func (p *Pipeline) Evaluate(ctx context.Context, predicted []model.ExtractionResult) (*accuracy.Report, error) {
	labels, rejected, err := dataset.ReadLabels(ctx, p.cfg.Input.Labels, p.readOpts())
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		zap.L().Warn("pipeline: label file has rejected rows", zap.Int("rejected", len(rejected)))
	}
	return accuracy.Evaluate(labels, predicted, accuracy.Options{Labels: p.labels})
}

// EvaluateFile evaluates a previously written extraction output.
func (p *Pipeline) EvaluateFile(ctx context.Context) (*accuracy.Report, error) {
	_, results, _, err := dataset.ReadExtraction(ctx, p.ExtractionPath(), p.readOpts())
	if err != nil {
		return nil, err
	}
	return p.Evaluate(ctx, results)
}

// Summarize aggregates screened records and writes the summary outputs.
func (p *Pipeline) Summarize(screened []model.ScreenedRecord, report *accuracy.Report) (summary.Summary, []string, error) {
	s := summary.Compute(screened, p.guideline, p.cfg.Summary.TopComorbidities)
	s.Accuracy = report
	paths, err := summary.Write(p.cfg.Output.Dir, s)
	if err != nil {
		return s, nil, err
	}
	return s, paths, nil
}

// SummarizeFile summarizes a previously written eligibility output, with
// accuracy metrics from the extraction output when a label file exists.
func (p *Pipeline) SummarizeFile(ctx context.Context) (summary.Summary, []string, error) {
	screened, err := p.LoadScreened(ctx)
	if err != nil {
		return summary.Summary{}, nil, err
	}

	var report *accuracy.Report
	if p.labelsPresent() {
		report, err = p.EvaluateFile(ctx)
		if err != nil && !errors.Is(err, accuracy.ErrNoData) {
			return summary.Summary{}, nil, err
		}
	}
	return p.Summarize(screened, report)
}

// Validate builds a data validation report over screened records.
func (p *Pipeline) Validate(screened []model.ScreenedRecord) summary.ValidationReport {
	return summary.Validate(screened, p.guideline, summary.ValidateOptions{
		SampleSize: p.cfg.Summary.SampleSize,
		Seed:       p.cfg.Summary.Seed,
	})
}

// GenerateLabels writes mock reference labels from the first labels.count
// patients to the configured label path.
func (p *Pipeline) GenerateLabels(ctx context.Context) (int, error) {
	records, _, err := dataset.ReadPatients(ctx, p.cfg.Input.Patients, p.readOpts())
	if err != nil {
		return 0, err
	}
	n, err := dataset.WriteLabels(p.cfg.Input.Labels, records, p.cfg.Labels.Count)
	if err != nil {
		return 0, err
	}
	zap.L().Info("pipeline: labels written", zap.Int("labels", n), zap.String("output", p.cfg.Input.Labels))
	return n, nil
}

// labelsPresent reports whether the reference label file exists.
func (p *Pipeline) labelsPresent() bool {
	if p.cfg.Input.Labels == "" {
		return false
	}
	_, err := os.Stat(p.cfg.Input.Labels)
	return !errors.Is(err, os.ErrNotExist)
}
