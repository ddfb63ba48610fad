// Package sheet converts spreadsheet files to and from ordered row data.
// Only the first tab of a workbook is read; the first row is the header.
package sheet

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column names every question sheet must carry in its header row.
const (
	ColQuestion = "Question"
	ColAnswer   = "Answer"
)

// Row maps a column name to the cell value in that column.
// Values are kept as strings; extra columns pass through untouched.
type Row map[string]string

// ErrNoData reports a workbook whose first tab has no data rows.
var ErrNoData = errors.New("sheet has no data rows")

// DecodeError wraps any failure to turn a spreadsheet file into rows.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding sheet %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode reads the first tab of the workbook at path and returns its data
// rows plus the header order as it appears in the file.
func Decode(path string) ([]Row, []string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, &DecodeError{Path: path, Err: errors.New("workbook has no sheets")}
	}

	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, &DecodeError{Path: path, Err: err}
	}
	if len(raw) < 2 {
		return nil, nil, &DecodeError{Path: path, Err: ErrNoData}
	}

	headers := raw[0]
	rows := make([]Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		if isEmpty(cells) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			var v string
			if i < len(cells) {
				v = cells[i]
			}
			row[h] = v
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, nil, &DecodeError{Path: path, Err: ErrNoData}
	}
	return rows, headers, nil
}

// Encode overwrites path with a single-tab workbook holding exactly the
// given rows. The header row follows Headers' canonical order.
func Encode(rows []Row, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	name := f.GetSheetName(0)
	headers := Headers(rows)

	cells := make([]any, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &cells); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}

	for i, row := range rows {
		for j, h := range headers {
			cells[j] = row[h]
		}
		anchor, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(name, anchor, &cells); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving sheet %s: %w", path, err)
	}
	return nil
}

// Headers returns the canonical column order for a row set: Question and
// Answer first, then every other column sorted by name. Go maps don't keep
// insertion order, so encoding needs a deterministic header layout.
func Headers(rows []Row) []string {
	seen := make(map[string]bool)
	var extra []string
	for _, row := range rows {
		for k := range row {
			if k == "" || seen[k] || k == ColQuestion || k == ColAnswer {
				continue
			}
			seen[k] = true
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append([]string{ColQuestion, ColAnswer}, extra...)
}

// HasRequiredColumns reports whether the first row carries both the
// Question and Answer columns. Values may be empty; only presence counts.
func HasRequiredColumns(rows []Row) bool {
	if len(rows) == 0 {
		return false
	}
	_, hasQ := rows[0][ColQuestion]
	_, hasA := rows[0][ColAnswer]
	return hasQ && hasA
}

func isEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
