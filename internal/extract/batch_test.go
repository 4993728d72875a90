package extract

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/screening-cli/internal/model"
)

type fakeAugmenter struct {
	sig   Signals
	err   error
	calls atomic.Int32
}

func (f *fakeAugmenter) Augment(_ context.Context, _ string, _ Signals) (Signals, error) {
	f.calls.Add(1)
	return f.sig, f.err
}

func testRecords(n int) []model.PatientRecord {
	recs := make([]model.PatientRecord, n)
	for i := range recs {
		recs[i] = model.PatientRecord{
			Name: fmt.Sprintf("patient-%03d", i),
			Age:  50 + i%30,
			Note: fmt.Sprintf("Patient has a %d pack-year smoking history and quit %d years ago.", i, i%20),
			Row:  i + 1,
		}
	}
	return recs
}

func TestRun_PreservesOrder(t *testing.T) {
	e := newTestExtractor(t)
	recs := testRecords(200)

	results, err := e.Run(context.Background(), recs, RunOptions{Concurrency: 8})
	require.NoError(t, err)
	require.Len(t, results, len(recs))

	for i, res := range results {
		assert.Equal(t, recs[i].Name, res.Name)
		assert.Equal(t, float64(i), res.PackYears.Value)
	}
}

func TestRun_MatchesSequential(t *testing.T) {
	e := newTestExtractor(t)
	recs := testRecords(50)

	parallel, err := e.Run(context.Background(), recs, RunOptions{Concurrency: 16})
	require.NoError(t, err)
	sequential, err := e.Run(context.Background(), recs, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestRun_Empty(t *testing.T) {
	e := newTestExtractor(t)
	results, err := e.Run(context.Background(), nil, RunOptions{Concurrency: 4})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRun_ContextCancelled(t *testing.T) {
	e := newTestExtractor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, testRecords(10), RunOptions{Concurrency: 2})
	assert.Error(t, err)
}

func TestOne_AugmenterFillsAbsentOnly(t *testing.T) {
	aug := &fakeAugmenter{sig: Signals{PackYears: model.Known(44), QuitYears: model.Known(8)}}
	e := newTestExtractor(t, WithAugmenter(aug))

	rec := model.PatientRecord{Name: "A", Note: "Patient reports 30 pack-year history; stopped smoking in 2016."}
	res := e.One(context.Background(), rec)

	assert.Equal(t, int32(1), aug.calls.Load())
	assert.Equal(t, 30.0, res.PackYears.Value)
	assert.Equal(t, model.SourceNote, res.PackYearsSource)
	assert.Equal(t, 8.0, res.QuitYears.Value)
	assert.Equal(t, model.SourceAugment, res.QuitYearsSource)
	assert.Equal(t, model.StatusFormer, res.SmokingStatus)
}

func TestOne_AugmenterBeatsStructuredFallback(t *testing.T) {
	aug := &fakeAugmenter{sig: Signals{PackYears: model.Known(27)}}
	e := newTestExtractor(t, WithAugmenter(aug))

	rec := model.PatientRecord{Name: "A", PackYears: model.Known(5), Note: "Roughly a pack a day for 27 years."}
	res := e.One(context.Background(), rec)

	assert.Equal(t, 27.0, res.PackYears.Value)
	assert.Equal(t, model.SourceAugment, res.PackYearsSource)
}

func TestOne_AugmenterSkippedWhenComplete(t *testing.T) {
	aug := &fakeAugmenter{}
	e := newTestExtractor(t, WithAugmenter(aug))

	_ = e.One(context.Background(), model.PatientRecord{Note: "25 pack-years, quit 3 years ago"})
	assert.Equal(t, int32(0), aug.calls.Load())
}

func TestOne_AugmenterErrorKeepsRecord(t *testing.T) {
	aug := &fakeAugmenter{err: errors.New("model unavailable")}
	e := newTestExtractor(t, WithAugmenter(aug))

	rec := model.PatientRecord{Name: "A", PackYears: model.Known(31), Note: "Heavy smoker."}
	res := e.One(context.Background(), rec)

	assert.Equal(t, 31.0, res.PackYears.Value)
	assert.Equal(t, model.SourceStructured, res.PackYearsSource)
	assert.Equal(t, model.StatusCurrent, res.SmokingStatus)
}
