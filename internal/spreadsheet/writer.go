package spreadsheet

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BradenHooton/roster/internal/catalog"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	employeesSheet = "Employees"
	guideSheet     = "Field Guide"
)

// WriteTemplate writes an import template workbook: an Employees sheet whose
// header row carries every catalog label, and a Field Guide sheet describing
// each column.
func WriteTemplate(w io.Writer, cat *catalog.Catalog) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", employeesSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	fields := cat.Fields()
	if err := writeHeader(f, employeesSheet, labels(fields)); err != nil {
		return err
	}

	if _, err := f.NewSheet(guideSheet); err != nil {
		return fmt.Errorf("failed to add guide sheet: %w", err)
	}
	if err := writeHeader(f, guideSheet, []string{"Column", "Field", "Category", "Required", "Example"}); err != nil {
		return err
	}
	for i, field := range fields {
		required := "No"
		if field.Required {
			required = "Yes"
		}
		row := []any{field.Label, field.Name, field.Category, required, field.Example}
		if err := setRow(f, guideSheet, i+2, row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// WriteXLSX writes records as a single-sheet workbook with one column per catalog field.
func WriteXLSX(w io.Writer, cat *catalog.Catalog, records []*models.Employee) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", employeesSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	fields := cat.Fields()
	if err := writeHeader(f, employeesSheet, labels(fields)); err != nil {
		return err
	}
	for i, rec := range records {
		row := make([]any, len(fields))
		for j, field := range fields {
			row[j] = cellValue(rec.Get(field.Name))
		}
		if err := setRow(f, employeesSheet, i+2, row); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// WriteCSV writes records as UTF-8 CSV with a header row of catalog labels.
func WriteCSV(w io.Writer, cat *catalog.Catalog, records []*models.Employee) error {
	fields := cat.Fields()
	cw := csv.NewWriter(w)
	if err := cw.Write(labels(fields)); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range records {
		row := make([]string, len(fields))
		for j, field := range fields {
			row[j] = fmt.Sprint(cellValue(rec.Get(field.Name)))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// cellValue renders a field value so that reading it back yields the same value.
func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case []string:
		return strings.Join(t, ", ")
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
	return v
}

func labels(fields []catalog.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Label
	}
	return out
}

func writeHeader(f *excelize.File, sheet string, header []string) error {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := setRow(f, sheet, 1, row); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
