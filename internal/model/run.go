package model

import "time"

// RunStatus represents the current state of a screening run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunInput identifies the files a run was started with.
type RunInput struct {
	InputPath     string `json:"input_path"`
	LabelsPath    string `json:"labels_path,omitempty"`
	GuidelinePath string `json:"guideline_path,omitempty"`
	OutputDir     string `json:"output_dir"`
}

// Run is one persisted execution of the pipeline.
type Run struct {
	ID        string     `json:"id"`
	Input     RunInput   `json:"input"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult is the headline outcome of a completed run.
type RunResult struct {
	Total      int            `json:"total"`
	Eligible   int            `json:"eligible"`
	Ineligible int            `json:"ineligible"`
	Rejected   int            `json:"rejected"` // malformed input rows
	Reasons    map[string]int `json:"reasons"`
	DurationMs int64          `json:"duration_ms"`

	// Accuracy holds per-field F1 keyed by field name; nil when no labels were evaluated.
	Accuracy map[string]float64 `json:"accuracy,omitempty"`
}
