// Package store persists screening runs and their per-patient decisions.
package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/screening-cli/internal/config"
	"github.com/sells-group/screening-cli/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for screening runs.
type Store interface {
	CreateRun(ctx context.Context, input model.RunInput) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, msg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// SaveDecisions replaces the stored decisions of a run.
	SaveDecisions(ctx context.Context, runID string, rows []model.ScreenedRecord) (int64, error)

	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

// decisionColumns are shared by both backends.
var decisionColumns = []string{
	"run_id", "row_num", "name", "age",
	"pack_years", "quit_years", "smoking_status",
	"pack_years_source", "quit_years_source",
	"eligible", "reason",
}

func decisionRow(runID string, r model.ScreenedRecord) []any {
	return []any{
		runID,
		r.Patient.Row,
		r.Patient.Name,
		r.Patient.Age,
		r.Extraction.PackYears.Float(),
		r.Extraction.QuitYears.Float(),
		string(r.Extraction.SmokingStatus),
		string(r.Extraction.PackYearsSource),
		string(r.Extraction.QuitYearsSource),
		r.Decision.Eligible,
		string(r.Decision.Reason),
	}
}

// Open creates and migrates the store selected by cfg.Driver. The "none"
// driver returns a nil Store.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "none", "":
		return nil, nil
	case "sqlite":
		s, err = NewSQLite(cfg.SQLitePath)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	zap.L().Debug("store: opened", zap.String("driver", cfg.Driver))
	return s, nil
}
