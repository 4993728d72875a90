//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/screening-cli/internal/model"
)

func TestFormatRunsList_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatRunsList(&buf, nil)
	assert.Equal(t, "No runs found.\n", buf.String())
}

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "0123456789abcdef",
			Input:     model.RunInput{InputPath: "data/raw/synthetic_patients.csv"},
			Status:    model.RunStatusComplete,
			Result:    &model.RunResult{Total: 100, Eligible: 37},
			CreatedAt: created,
		},
		{
			ID:        "short",
			Input:     model.RunInput{InputPath: "patients.xlsx"},
			Status:    model.RunStatusFailed,
			CreatedAt: created,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "ELIGIBLE")
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "100")
	assert.Contains(t, out, "37")
	assert.Contains(t, out, "short")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "2026-03-04 05:06:07")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abcdefgh", truncateID("abcdefghijkl"))
	assert.Equal(t, "abc", truncateID("abc"))
}
