package tables

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/fmed-ingest/internal/core"
)

// GenderRule translates a source gender cell into the binary enumeration.
// Only the recognized male indicator yields Male; every other value,
// including a blank cell, yields Female. When the column is absent from
// the dataset, the rule falls back to AbsentIsMale.
type GenderRule struct {
	Column       string
	IsMale       func(string) bool
	AbsentIsMale bool
}

// Apply returns the gender for a row. It never fails.
func (r GenderRule) Apply(row []string, idx core.HeaderIndex) core.Gender {
	if !idx.Has(r.Column) {
		if r.AbsentIsMale {
			return core.GenderMale
		}
		return core.GenderFemale
	}
	// a row too short to reach the column reads as blank
	if v, _ := core.Cell(row, idx, r.Column); r.IsMale(v) {
		return core.GenderMale
	}
	return core.GenderFemale
}

// coded matches numerically coded sex columns where 1 means male.
func coded(v string) bool {
	return core.IsNumericOne(v)
}

// textual matches the literal "Male", exactly as the source writes it.
func textual(v string) bool {
	return v == string(core.GenderMale)
}

// identifier returns the native id when the column exists and is non-blank,
// otherwise the running sequence number.
func identifier(row []string, idx core.HeaderIndex, column string, seq int) string {
	if column != "" {
		if v, _ := core.Cell(row, idx, column); v != "" {
			return v
		}
	}
	return fmt.Sprint(seq)
}

// patientID joins a variant prefix and an identifier part: "HD_7".
func patientID(prefix, part string) string {
	return prefix + "_" + part
}

// history renders a risk factor summary: "<label> risk factors: A x, B y".
func history(label string, row []string, idx core.HeaderIndex, factors ...riskFactor) string {
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = f.Label + " " + core.ValueOr(row, idx, f.Column, core.Unknown)
	}
	return label + " risk factors: " + strings.Join(parts, ", ")
}

type riskFactor struct {
	Label  string
	Column string
}
