// Package spreadsheet reads employee spreadsheets into raw header-keyed
// records and writes templates and exports.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/BradenHooton/roster/internal/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ParseResult contains the parsed records alongside any warnings.
type ParseResult struct {
	Headers  []string
	Records  []models.RawRecord
	Warnings []models.ParseWarning
}

// Format is a supported spreadsheet file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DetectFormat picks the format from a file name's extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, filepath.Ext(name))
}

// Read parses the first worksheet (or the CSV body) of a spreadsheet. The first
// row holds headers. Blank rows are skipped. maxRows caps the data rows read;
// zero means no cap.
func Read(name string, r io.Reader, maxRows int) (*ParseResult, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	var rows [][]any
	switch format {
	case FormatXLSX:
		rows, err = readXLSX(r)
	case FormatCSV:
		rows, err = readCSV(r)
	}
	if err != nil {
		return nil, err
	}

	return buildResult(rows, maxRows)
}

func buildResult(rows [][]any, maxRows int) (*ParseResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header row found", models.ErrEmptyImport)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(fmt.Sprint(h))
	}

	result := &ParseResult{Headers: headers}
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-indexed, header is row 1
		if isBlankRow(row) {
			continue
		}
		if maxRows > 0 && len(result.Records) >= maxRows {
			result.Warnings = append(result.Warnings, models.ParseWarning{
				Row:     rowNum,
				Message: fmt.Sprintf("row limit of %d reached; remaining rows ignored", maxRows),
			})
			break
		}

		values := make(map[string]any, len(headers))
		for col, cell := range row {
			if col >= len(headers) || headers[col] == "" {
				if !isBlank(cell) {
					result.Warnings = append(result.Warnings, models.ParseWarning{
						Row:     rowNum,
						Message: fmt.Sprintf("value in column %d has no header and was ignored", col+1),
					})
				}
				continue
			}
			values[headers[col]] = cell
		}
		result.Records = append(result.Records, models.RawRecord{Row: rowNum, Values: values})
	}

	if len(result.Records) == 0 {
		return nil, models.ErrEmptyImport
	}
	return result, nil
}

func readXLSX(r io.Reader) ([][]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no worksheets", models.ErrEmptyImport)
	}
	sheet := sheets[0]

	iter, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}
	defer iter.Close()

	var rows [][]any
	rowNum := 0
	for iter.Next() {
		rowNum++
		cols, err := iter.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", rowNum, err)
		}
		row := make([]any, len(cols))
		for i, raw := range cols {
			row[i] = typedCell(f, sheet, i+1, rowNum, raw)
		}
		rows = append(rows, row)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate worksheet %q: %w", sheet, err)
	}
	return rows, nil
}

// typedCell turns a raw cell string into a bool or float64 when the cell is stored as one.
func typedCell(f *excelize.File, sheet string, col, row int, raw string) any {
	if raw == "" {
		return raw
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return raw
	}
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	}
	return raw
}

func readCSV(r io.Reader) ([][]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	decoded, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	// Rows may be ragged; short rows simply leave trailing fields absent.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]any
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		row := make([]any, len(record))
		for i, v := range record {
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// decodeText converts CSV bytes to UTF-8. A UTF-8 or UTF-16 byte order mark
// selects the decoder; otherwise invalid UTF-8 is read as Latin-1.
func decodeText(data []byte) ([]byte, error) {
	var fallback encoding.Encoding = unicode.UTF8
	if !hasBOM(data) && !utf8.Valid(data) {
		fallback = charmap.ISO8859_1
	}
	decoder := unicode.BOMOverride(fallback.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file: %w", err)
	}
	return out, nil
}

func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) ||
		bytes.HasPrefix(data, []byte{0xFF, 0xFE}) ||
		bytes.HasPrefix(data, []byte{0xFE, 0xFF})
}

func isBlankRow(row []any) bool {
	for _, cell := range row {
		if !isBlank(cell) {
			return false
		}
	}
	return true
}

func isBlank(cell any) bool {
	s, ok := cell.(string)
	return ok && strings.TrimSpace(s) == ""
}
