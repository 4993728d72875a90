// Package extract turns clinical note text into smoking-history signals and
// derives smoking status from them.
package extract

import (
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/screening-cli/internal/model"
)

// Default patterns. Each captures one integer.
const (
	DefaultPackYearsPattern = `(?i)(\d+)\s*pack[- ]?years?`
	DefaultQuitYearsPattern = `(?i)quit\s*(\d+)\s*years?`
)

// Signals are the values found in a single note. Absent fields mean no match.
type Signals struct {
	PackYears model.Quantity
	QuitYears model.Quantity
}

// Extractor holds compiled note patterns. It is safe for concurrent use.
type Extractor struct {
	packYears *regexp.Regexp
	quitYears *regexp.Regexp
	policy    AbsentPackYearsPolicy
	augmenter Augmenter
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithPatterns overrides the pack-years and quit-years patterns. Each pattern
// must contain at least one capture group for the integer.
func WithPatterns(packYears, quitYears string) Option {
	return func(e *Extractor) error {
		py, err := compileCapturing(packYears)
		if err != nil {
			return eris.Wrap(err, "extract: pack-years pattern")
		}
		qy, err := compileCapturing(quitYears)
		if err != nil {
			return eris.Wrap(err, "extract: quit-years pattern")
		}
		e.packYears, e.quitYears = py, qy
		return nil
	}
}

// WithPolicy sets how absent pack-years affect status derivation.
func WithPolicy(p AbsentPackYearsPolicy) Option {
	return func(e *Extractor) error {
		if !p.valid() {
			return eris.Errorf("extract: unknown absent pack-years policy %q", p)
		}
		e.policy = p
		return nil
	}
}

// WithAugmenter attaches an optional capability consulted for fields the
// patterns leave absent.
func WithAugmenter(a Augmenter) Option {
	return func(e *Extractor) error {
		e.augmenter = a
		return nil
	}
}

// New builds an Extractor with the default patterns and policy.
func New(opts ...Option) (*Extractor, error) {
	e := &Extractor{
		packYears: regexp.MustCompile(DefaultPackYearsPattern),
		quitYears: regexp.MustCompile(DefaultQuitYearsPattern),
		policy:    PolicyFallthrough,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Policy returns the configured absent pack-years policy.
func (e *Extractor) Policy() AbsentPackYearsPolicy {
	return e.policy
}

// Extract searches the note for both signals independently, using only the
// first match of each pattern. It never fails: no match is an absent value.
func (e *Extractor) Extract(note string) Signals {
	return Signals{
		PackYears: firstInt(e.packYears, note),
		QuitYears: firstInt(e.quitYears, note),
	}
}

// Resolve applies fallback resolution for one patient: the extracted value
// wins, then the structured field, then absent. Status is derived from the
// resolved values.
func (e *Extractor) Resolve(rec model.PatientRecord, sig Signals) model.ExtractionResult {
	res := model.ExtractionResult{Name: rec.Name}
	res.PackYears, res.PackYearsSource = resolve(sig.PackYears, rec.PackYears)
	res.QuitYears, res.QuitYearsSource = resolve(sig.QuitYears, rec.QuitYears)
	res.SmokingStatus = DeriveStatus(res.PackYears, res.QuitYears, e.policy)
	return res
}

func resolve(extracted, structured model.Quantity) (model.Quantity, model.ValueSource) {
	if extracted.Valid {
		return extracted, model.SourceNote
	}
	if structured.Valid {
		return structured, model.SourceStructured
	}
	return model.Absent(), model.SourceNone
}

func firstInt(re *regexp.Regexp, note string) model.Quantity {
	m := re.FindStringSubmatch(note)
	if len(m) < 2 {
		return model.Absent()
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// Digit runs too long for int are treated as no match.
		return model.Absent()
	}
	return model.Quantity{Value: float64(n), Raw: m[1], Valid: true}
}

func compileCapturing(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, eris.Errorf("pattern %q has no capture group", pattern)
	}
	return re, nil
}
