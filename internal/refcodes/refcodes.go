// Package refcodes loads the canonical land-use classification code table.
package refcodes

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Table maps a use code to its human-readable description. Keys are stored
// as read from the source; inputs are truncated to canonical form before
// membership checks.
type Table map[string]string

// headerSchema names one recognized (code, description) column pairing.
// Schemas are tried in order; the first whose columns both resolve wins,
// with a positional fallback to the first two columns.
type headerSchema struct {
	code string
	desc string
}

var headerSchemas = []headerSchema{
	{code: "use_code", desc: "description"},
	{code: "code", desc: "description"},
}

// Load reads the classification table from a CSV file. Any failure yields
// an empty table rather than aborting the run: callers then treat every
// property as non-matching. The degraded condition is logged as a warning.
func Load(path string) Table {
	f, err := os.Open(path)
	if err != nil {
		zap.L().Warn("refcodes: table unavailable, all codes will be non-matching",
			zap.String("path", path),
			zap.Error(err),
		)
		return Table{}
	}
	defer f.Close() //nolint:errcheck

	table, err := Parse(f)
	if err != nil {
		zap.L().Warn("refcodes: table unreadable, all codes will be non-matching",
			zap.String("path", path),
			zap.Error(err),
		)
		return Table{}
	}

	zap.L().Info("refcodes: loaded classification codes", zap.Int("count", len(table)))
	return table
}

// Parse reads a classification table from CSV content.
func Parse(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "refcodes: read csv")
	}
	if len(rows) == 0 {
		return nil, eris.New("refcodes: empty table source")
	}

	header := rows[0]
	codeIdx, descIdx := resolveColumns(header)

	table := make(Table, len(rows)-1)
	for _, row := range rows[1:] {
		if codeIdx >= len(row) || descIdx >= len(row) {
			continue
		}
		code := strings.TrimSpace(row[codeIdx])
		if code == "" {
			continue
		}
		table[code] = strings.TrimSpace(row[descIdx])
	}

	return table, nil
}

func resolveColumns(header []string) (codeIdx, descIdx int) {
	find := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	for _, s := range headerSchemas {
		ci, di := find(s.code), find(s.desc)
		if ci >= 0 && di >= 0 {
			return ci, di
		}
	}
	// Positional fallback: first column is the code, second the description.
	return 0, 1
}

// Canonical truncates a use code to its 3-character canonical form.
func Canonical(code string) string {
	if len(code) > 3 {
		return code[:3]
	}
	return code
}

// Valid reports whether the code (canonicalized) is in the table.
func (t Table) Valid(code string) bool {
	_, ok := t[Canonical(code)]
	return ok
}

// Description returns the description for a code, or "Unknown" when the
// code is not in the table.
func (t Table) Description(code string) string {
	if d, ok := t[Canonical(code)]; ok {
		return d
	}
	return "Unknown"
}
