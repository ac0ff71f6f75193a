// Package report renders employee rosters as PDF documents.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/BradenHooton/roster/internal/models"
	"github.com/jung-kurt/gofpdf"
)

type column struct {
	header string
	width  float64
	value  func(*models.Employee) string
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var columns = []column{
	{"Name", 55, func(e *models.Employee) string { return e.DisplayName() }},
	{"Email", 65, func(e *models.Employee) string { return e.Email }},
	{"Department", 40, func(e *models.Employee) string { return deref(e.Department) }},
	{"Job Title", 50, func(e *models.Employee) string { return deref(e.JobTitle) }},
	{"Date of Hire", 30, func(e *models.Employee) string { return deref(e.DateOfHire) }},
	{"Status", 37, func(e *models.Employee) string { return deref(e.EmploymentStatus) }},
}

// WriteRoster writes a landscape A4 roster of records to w.
func WriteRoster(w io.Writer, title string, records []*models.Employee, generatedAt time.Time) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range columns {
			pdf.CellFormat(c.width, 8, c.header, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("%d employees, generated %s", len(records), generatedAt.UTC().Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, rec := range records {
		if pdf.GetY()+7 > pageHeight-bottom-12 {
			pdf.AddPage()
			header()
		}
		for _, c := range columns {
			pdf.CellFormat(c.width, 7, fit(pdf, tr(c.value(rec)), c.width-2), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render roster: %w", err)
	}
	return nil
}

// fit shortens s with an ellipsis until it is narrower than width.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
