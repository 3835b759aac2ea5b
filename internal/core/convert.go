package core

// convert.go provides cell cleanup and per-field coercion for dataset rows.
//
// Every accessor here is total: a missing column, a short row or a blank cell
// yields the caller's default rather than an error, so one malformed row
// never stops a mapping pass.

import (
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are lowercased for case-insensitive matching. On duplicate headers the
// first occurrence wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, dup := idx[key]; dup {
			continue
		}
		idx[key] = i
	}
	return idx
}

// Lookup returns the position of a column, matched case-insensitively.
func (h HeaderIndex) Lookup(name string) (int, bool) {
	pos, ok := h[strings.ToLower(name)]
	return pos, ok
}

// Has reports whether the header contains the column.
func (h HeaderIndex) Has(name string) bool {
	_, ok := h.Lookup(name)
	return ok
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// Cell returns the cleaned value of a column and whether the column exists
// in both header and row.
func Cell(row []string, idx HeaderIndex, name string) (string, bool) {
	pos, ok := idx.Lookup(name)
	if !ok || pos >= len(row) {
		return "", false
	}
	return CleanCell(row[pos]), true
}

// ValueOr returns the cleaned cell, or def when the column is missing or blank.
func ValueOr(row []string, idx HeaderIndex, name, def string) string {
	v, _ := Cell(row, idx, name)
	if v == "" {
		return def
	}
	return v
}

// IsNumericOne reports whether s parses as the number 1 ("1", "1.0", "1e0").
func IsNumericOne(s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && f == 1
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a time to pgtype.Date, invalid for the zero time.
func ToPgDate(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// MustDate parses a YYYY-MM-DD literal. It is meant for package-level
// constants in mapping definitions and panics on a malformed literal.
func MustDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic("core: bad date literal " + strconv.Quote(s))
	}
	return t
}
