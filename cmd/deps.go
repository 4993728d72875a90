package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/screening-cli/internal/pipeline"
	"github.com/sells-group/screening-cli/internal/store"
	"github.com/sells-group/screening-cli/pkg/anthropic"
)

// initStore opens the configured run history store. It returns nil when
// store.driver is none.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

// newPipeline builds a pipeline. The Anthropic client is only created when
// augmentation is enabled.
func newPipeline(st store.Store) (*pipeline.Pipeline, error) {
	var ai anthropic.Client
	if cfg.Extract.Augment {
		ai = anthropic.NewClient(cfg.Anthropic.Key)
	}
	return pipeline.New(cfg, st, ai)
}
