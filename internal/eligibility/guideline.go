// Package eligibility applies the lung cancer screening guideline to
// extracted smoking history.
package eligibility

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Guideline holds the screening thresholds. The defaults encode the 2021
// USPSTF recommendation.
type Guideline struct {
	Name         string  `yaml:"name" json:"name"`
	MinAge       int     `yaml:"min_age" json:"min_age"`
	MaxAge       int     `yaml:"max_age" json:"max_age"`
	MinPackYears float64 `yaml:"min_pack_years" json:"min_pack_years"`
	MaxQuitYears float64 `yaml:"max_quit_years" json:"max_quit_years"` // exclusive
}

// DefaultGuideline returns the USPSTF thresholds: ages 50-80, at least 20
// pack-years, currently smoking or quit within 15 years.
func DefaultGuideline() Guideline {
	return Guideline{
		Name:         "USPSTF 2021",
		MinAge:       50,
		MaxAge:       80,
		MinPackYears: 20,
		MaxQuitYears: 15,
	}
}

// Validate checks that the thresholds are internally consistent.
func (g Guideline) Validate() error {
	var errs []string

	if g.MinAge < 0 {
		errs = append(errs, "min_age must be >= 0")
	}
	if g.MaxAge < g.MinAge {
		errs = append(errs, "max_age must be >= min_age")
	}
	if g.MinPackYears < 0 {
		errs = append(errs, "min_pack_years must be >= 0")
	}
	if g.MaxQuitYears <= 0 {
		errs = append(errs, "max_quit_years must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("eligibility: guideline validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadGuideline reads a guideline from a YAML file with a top-level
// "guideline" key. Keys missing from the file keep their default values.
func LoadGuideline(path string) (Guideline, error) {
	g := DefaultGuideline()
	if path == "" {
		return g, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Guideline{}, eris.Wrapf(err, "eligibility: read guideline %s", path)
	}

	wrapper := struct {
		Guideline Guideline `yaml:"guideline"`
	}{Guideline: g}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Guideline{}, eris.Wrap(err, "eligibility: parse guideline")
	}
	g = wrapper.Guideline

	if err := g.Validate(); err != nil {
		return Guideline{}, err
	}
	return g, nil
}
