package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMalformedQuantity is returned when a structured numeric field cannot be parsed.
var ErrMalformedQuantity = eris.New("malformed quantity")

// Quantity is an optional non-negative clinical quantity (pack-years, quit-years).
// Valid=false means the value is absent, which is never the same as zero.
type Quantity struct {
	Value float64
	Raw   string // source text as written, e.g. "20" or "20.0"
	Valid bool
}

// Known returns a present Quantity with a canonical Raw form.
func Known(v float64) Quantity {
	return Quantity{Value: v, Raw: formatFloat(v), Valid: true}
}

// Absent returns the zero Quantity, which is absent.
func Absent() Quantity {
	return Quantity{}
}

// absentTokens are cell values treated as a missing number.
var absentTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"null": true,
	"na":   true,
	"n/a":  true,
}

// ParseQuantity parses a structured cell. Empty and null-like tokens yield an
// absent Quantity; negative or non-numeric text is an error.
func ParseQuantity(s string) (Quantity, error) {
	trimmed := strings.TrimSpace(s)
	if absentTokens[strings.ToLower(trimmed)] {
		return Absent(), nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Absent(), eris.Wrapf(ErrMalformedQuantity, "parse %q", s)
	}
	if v < 0 {
		return Absent(), eris.Wrapf(ErrMalformedQuantity, "negative value %q", s)
	}
	return Quantity{Value: v, Raw: trimmed, Valid: true}, nil
}

// IsZero reports whether the quantity is present and exactly zero.
func (q Quantity) IsZero() bool {
	return q.Valid && q.Value == 0
}

// Less reports whether the quantity is present and strictly below limit.
// An absent quantity is never less than anything.
func (q Quantity) Less(limit float64) bool {
	return q.Valid && q.Value < limit
}

// Canonical renders the value in its shortest float form, or "" when absent.
func (q Quantity) Canonical() string {
	if !q.Valid {
		return ""
	}
	return formatFloat(q.Value)
}

// String renders the source text when present, falling back to Canonical.
func (q Quantity) String() string {
	if !q.Valid {
		return ""
	}
	if q.Raw != "" {
		return q.Raw
	}
	return formatFloat(q.Value)
}

// Float returns a pointer to the value, or nil when absent.
func (q Quantity) Float() *float64 {
	if !q.Valid {
		return nil
	}
	v := q.Value
	return &v
}

// Or returns q when present, otherwise fallback.
func (q Quantity) Or(fallback Quantity) Quantity {
	if q.Valid {
		return q
	}
	return fallback
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(q.Value)
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*q = Absent()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return eris.Wrap(err, "quantity: unmarshal")
	}
	*q = Known(v)
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
