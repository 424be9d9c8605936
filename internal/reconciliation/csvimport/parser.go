// Package csvimport turns two-column (date, local amount) legacy exports into
// orders. Parsing is all-or-nothing: one bad row rejects the whole file
// before anything is written.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var ErrEmptyFile = errors.New("csv contains no data rows")

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Row is one parsed data line
type Row struct {
	Line   int
	Date   time.Time
	Amount float64
}

// RowError describes why a line was rejected
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ValidationError carries every row error of a rejected file.
type ValidationError struct {
	Errors []RowError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "csv rejected: " + e.Errors[0].Error()
	}
	return fmt.Sprintf("csv rejected: %d invalid rows", len(e.Errors))
}

// Parse reads every record. Blank lines are ignored. Only the first record may
// be a header, and only when it looks like one (see looksLikeHeader); any other
// malformed first record is reported like every other line.
func Parse(text string) ([]Row, []RowError) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var (
		rows      []Row
		rowErrors []RowError
		first     = true
	)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				rowErrors = append(rowErrors, RowError{Line: pe.Line, Message: pe.Err.Error()})
				first = false
				continue
			}
			rowErrors = append(rowErrors, RowError{Message: err.Error()})
			break
		}

		line, _ := r.FieldPos(0)
		if isBlank(record) {
			continue
		}
		if first {
			first = false
			if looksLikeHeader(record) {
				continue
			}
		}

		row, rowErr := parseRecord(line, record)
		if rowErr != nil {
			rowErrors = append(rowErrors, *rowErr)
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 && len(rowErrors) == 0 {
		rowErrors = append(rowErrors, RowError{Line: 0, Message: ErrEmptyFile.Error()})
	}
	return rows, rowErrors
}

func parseRecord(line int, record []string) (Row, *RowError) {
	cells := trimTrailingEmpty(record)
	if len(cells) != 2 {
		return Row{}, &RowError{Line: line, Message: fmt.Sprintf("expected 2 columns (date, amount), got %d", len(cells))}
	}

	date, ok := parseDate(cells[0])
	if !ok {
		return Row{}, &RowError{Line: line, Message: fmt.Sprintf("invalid date %q", cells[0])}
	}

	amount, err := parseAmount(cells[1])
	if err != nil {
		return Row{}, &RowError{Line: line, Message: fmt.Sprintf("invalid amount %q: %v", cells[1], err)}
	}

	return Row{Line: line, Date: date, Amount: amount}, nil
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseAmount(raw string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, errors.New("empty")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a number")
	}
	if v < 0 {
		return 0, errors.New("must not be negative")
	}
	return v, nil
}

// looksLikeHeader: neither a date nor an amount anywhere, and a label made of
// letters in the first cell.
func looksLikeHeader(record []string) bool {
	cells := trimTrailingEmpty(record)
	if len(cells) == 0 || !hasLetter(cells[0]) {
		return false
	}
	for _, c := range cells {
		if _, ok := parseDate(c); ok {
			return false
		}
		if _, err := parseAmount(c); err == nil {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimTrailingEmpty(record []string) []string {
	end := len(record)
	for end > 0 && strings.TrimSpace(record[end-1]) == "" {
		end--
	}
	return record[:end]
}
