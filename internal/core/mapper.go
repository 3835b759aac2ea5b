package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/fmed-ingest/internal/logging"
)

// TabularExt is the extension the mapper looks for in a staged dataset.
const TabularExt = ".csv"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNoTabularFile is returned by FindTabularFile when a directory has no CSV.
var ErrNoTabularFile = errors.New("no tabular file found")

// ErrNoMapping is returned when a variant has no registered definition.
var ErrNoMapping = errors.New("no mapping registered")

// Mapper turns staged datasets into normalized patient records.
type Mapper struct{}

// NewMapper creates a mapper backed by the package registry.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map reads the first CSV file in dir and maps its rows with the variant's
// definition. A directory without a CSV yields an empty slice and a logged
// warning, not an error.
func (m *Mapper) Map(ctx context.Context, v Variant, dir string) ([]PatientRecord, error) {
	def, ok := Get(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMapping, v)
	}

	log := logging.WithFields(ctx, "variant", v.String(), "dir", dir)

	path, err := FindTabularFile(dir)
	if errors.Is(err, ErrNoTabularFile) {
		log.Warn("no CSV files found in staged dataset")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	rows, err := parseCSV(sanitizeUTF8(bytes.TrimPrefix(data, utf8BOM)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	if len(rows) > 0 {
		if missing := def.MissingColumns(MakeHeaderIndex(rows[0])); len(missing) > 0 {
			log.Warn("source columns missing, placeholders will be used", "columns", missing)
		}
	}

	records := MapRows(def, rows)
	log.Info("dataset mapped", "file", filepath.Base(path), "records", len(records))
	return records, nil
}

// MapRows maps parsed CSV rows, the first being the header, in source order.
// Blank rows are skipped and do not advance the identifier counter.
func MapRows(def MappingDefinition, rows [][]string) []PatientRecord {
	if len(rows) < 2 {
		return nil
	}

	idx := MakeHeaderIndex(rows[0])
	records := make([]PatientRecord, 0, len(rows)-1)

	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		records = append(records, def.BuildRecord(row, idx, len(records)+1))
	}

	return records
}

// FindTabularFile returns the first CSV file in dir by name. Subdirectories
// are not searched.
func FindTabularFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read directory: %w", err)
	}

	// os.ReadDir returns entries sorted by filename
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.EqualFold(filepath.Ext(entry.Name()), TabularExt) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("%s: %w", dir, ErrNoTabularFile)
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	return bytes.ToValidUTF8(data, []byte("\uFFFD"))
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
