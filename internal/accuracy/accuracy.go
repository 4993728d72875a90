// Package accuracy scores extraction results against a reference-labeled
// subset using micro-averaged precision, recall, and F1.
package accuracy

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/screening-cli/internal/model"
)

// ErrNoData is returned when the join produces no records to score.
var ErrNoData = eris.New("accuracy: no joined records")

// Field names reported by Evaluate, in report order.
const (
	FieldPackYears     = "pack_years"
	FieldQuitYears     = "quit_years"
	FieldSmokingStatus = "smoking_status"
)

// Fields lists the scored fields in report order.
var Fields = []string{FieldPackYears, FieldQuitYears, FieldSmokingStatus}

// LabelPolicy controls how numeric values become categorical labels.
type LabelPolicy string

const (
	// LabelCanonical compares the shortest numeric form, so "20" and "20.0"
	// are the same label.
	LabelCanonical LabelPolicy = "canonical"
	// LabelStrict compares the text as written, so "20" and "20.0" differ.
	LabelStrict LabelPolicy = "strict"
)

// ParseLabelPolicy validates a configured policy name. Empty selects canonical.
func ParseLabelPolicy(s string) (LabelPolicy, error) {
	switch LabelPolicy(s) {
	case "", LabelCanonical:
		return LabelCanonical, nil
	case LabelStrict:
		return LabelStrict, nil
	}
	return "", eris.Errorf("accuracy: unknown label policy %q", s)
}

// Options configures Evaluate.
type Options struct {
	Labels LabelPolicy
}

// Counts are the micro-averaged confusion totals for one field.
type Counts struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
}

// FieldMetrics holds the scores for one field.
type FieldMetrics struct {
	Counts
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Labels    int     `json:"labels"` // distinct labels seen on either side
}

// Report is the outcome of one evaluation. When NoData is set, Metrics is
// empty and the scores are undefined rather than zero.
type Report struct {
	Policy        LabelPolicy             `json:"label_policy"`
	Reference     int                     `json:"reference"`
	Predicted     int                     `json:"predicted"`
	Joined        int                     `json:"joined"`
	ReferenceOnly int                     `json:"reference_only"`
	PredictedOnly int                     `json:"predicted_only"`
	NoData        bool                    `json:"no_data"`
	Metrics       map[string]FieldMetrics `json:"metrics,omitempty"`
}

// Flatten returns "field.metric" keys for persistence.
func (r *Report) Flatten() map[string]float64 {
	out := make(map[string]float64, len(r.Metrics)*3)
	for f, m := range r.Metrics {
		out[f+".precision"] = m.Precision
		out[f+".recall"] = m.Recall
		out[f+".f1"] = m.F1
	}
	return out
}

type pair struct {
	ref  model.LabeledRecord
	pred model.ExtractionResult
}

// Evaluate inner-joins reference and predicted on name and scores each field.
// Names repeated on either side produce every pairing. Records without a
// partner are counted in the report and excluded from scoring.
func Evaluate(reference []model.LabeledRecord, predicted []model.ExtractionResult, opts Options) (*Report, error) {
	policy, err := ParseLabelPolicy(string(opts.Labels))
	if err != nil {
		return nil, err
	}

	byName := make(map[string][]int, len(predicted))
	for i, p := range predicted {
		byName[p.Name] = append(byName[p.Name], i)
	}

	refNames := make(map[string]struct{}, len(reference))
	var pairs []pair
	report := &Report{
		Policy:    policy,
		Reference: len(reference),
		Predicted: len(predicted),
	}
	for _, ref := range reference {
		refNames[ref.Name] = struct{}{}
		idx, ok := byName[ref.Name]
		if !ok {
			report.ReferenceOnly++
			continue
		}
		for _, i := range idx {
			pairs = append(pairs, pair{ref: ref, pred: predicted[i]})
		}
	}
	for _, p := range predicted {
		if _, ok := refNames[p.Name]; !ok {
			report.PredictedOnly++
		}
	}
	report.Joined = len(pairs)

	if report.Joined == 0 {
		report.NoData = true
		return report, eris.Wrapf(ErrNoData, "accuracy: %d reference and %d predicted records share no names",
			report.Reference, report.Predicted)
	}

	label := numericLabel(policy)
	report.Metrics = map[string]FieldMetrics{
		FieldPackYears: score(pairs, func(p pair) (string, string) {
			return label(p.ref.PackYears), label(p.pred.PackYears)
		}),
		FieldQuitYears: score(pairs, func(p pair) (string, string) {
			return label(p.ref.QuitYears), label(p.pred.QuitYears)
		}),
		FieldSmokingStatus: score(pairs, func(p pair) (string, string) {
			return statusLabel(policy, p.ref.SmokingStatus), statusLabel(policy, string(p.pred.SmokingStatus))
		}),
	}

	zap.L().Debug("accuracy: evaluated",
		zap.Int("joined", report.Joined),
		zap.Int("reference_only", report.ReferenceOnly),
		zap.Int("predicted_only", report.PredictedOnly),
		zap.String("label_policy", string(policy)),
	)
	return report, nil
}

func numericLabel(policy LabelPolicy) func(model.Quantity) string {
	if policy == LabelStrict {
		return func(q model.Quantity) string { return q.Raw }
	}
	return func(q model.Quantity) string { return q.Canonical() }
}

func statusLabel(policy LabelPolicy, s string) string {
	if policy == LabelStrict {
		return s
	}
	if st, ok := model.ParseSmokingStatus(s); ok {
		return string(st)
	}
	return s
}

// score computes micro-averaged metrics: per-label TP/FP/FN are summed over
// every distinct label before the ratios are taken.
func score(pairs []pair, labels func(pair) (string, string)) FieldMetrics {
	type tally struct{ tp, fp, fn int }
	per := make(map[string]*tally)
	get := func(l string) *tally {
		t, ok := per[l]
		if !ok {
			t = &tally{}
			per[l] = t
		}
		return t
	}

	for _, p := range pairs {
		want, got := labels(p)
		if want == got {
			get(want).tp++
			continue
		}
		get(got).fp++
		get(want).fn++
	}

	var m FieldMetrics
	for _, t := range per {
		m.TP += t.tp
		m.FP += t.fp
		m.FN += t.fn
	}
	m.Labels = len(per)
	m.Precision = ratio(m.TP, m.TP+m.FP)
	m.Recall = ratio(m.TP, m.TP+m.FN)
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
