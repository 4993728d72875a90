package extract

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/screening-cli/internal/model"
)

// Augmenter is an optional note-reading capability (for example a language
// model) consulted when the patterns leave a field absent. Implementations
// should only fill fields that are absent in have.
type Augmenter interface {
	Augment(ctx context.Context, note string, have Signals) (Signals, error)
}

// RunOptions configures batch extraction.
type RunOptions struct {
	Concurrency int // max records processed at once; <= 0 means 1
}

// Run extracts and resolves every record. Output index i always corresponds to
// input index i. A failing augmenter never drops a record; only context
// cancellation aborts the batch.
func (e *Extractor) Run(ctx context.Context, records []model.PatientRecord, opts RunOptions) ([]model.ExtractionResult, error) {
	results := make([]model.ExtractionResult, len(records))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range records {
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			results[i] = e.One(gCtx, records[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "extract: batch")
	}

	zap.L().Debug("extract: batch complete", zap.Int("records", len(records)))
	return results, nil
}

// One extracts and resolves a single record, consulting the augmenter for
// fields the patterns missed.
func (e *Extractor) One(ctx context.Context, rec model.PatientRecord) model.ExtractionResult {
	sig := e.Extract(rec.Note)

	if e.augmenter == nil || (sig.PackYears.Valid && sig.QuitYears.Valid) {
		return e.Resolve(rec, sig)
	}

	aug, err := e.augmenter.Augment(ctx, rec.Note, sig)
	if err != nil {
		zap.L().Warn("extract: augmenter failed, keeping pattern signals",
			zap.Int("row", rec.Row),
			zap.Error(err),
		)
		return e.Resolve(rec, sig)
	}

	res := e.Resolve(rec, sig)
	if !sig.PackYears.Valid && aug.PackYears.Valid {
		res.PackYears, res.PackYearsSource = aug.PackYears, model.SourceAugment
	}
	if !sig.QuitYears.Valid && aug.QuitYears.Valid {
		res.QuitYears, res.QuitYearsSource = aug.QuitYears, model.SourceAugment
	}
	res.SmokingStatus = DeriveStatus(res.PackYears, res.QuitYears, e.policy)
	return res
}
