package spreadsheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/BradenHooton/roster/internal/catalog"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("staff.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = DetectFormat("staff.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = DetectFormat("staff.pdf")
	assert.True(t, errors.Is(err, models.ErrUnsupportedFormat))
}

func TestRead_CSVSkipsBlankRowsAndNumbersRows(t *testing.T) {
	body := "Email,Full Name,Department\n" +
		"a@x.com,Ann,Eng\n" +
		",,\n" +
		"b@x.com,Bob,\n"

	res, err := Read("staff.csv", strings.NewReader(body), 0)

	require.NoError(t, err)
	assert.Equal(t, []string{"Email", "Full Name", "Department"}, res.Headers)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.Records[0].Row)
	assert.Equal(t, 4, res.Records[1].Row)
	assert.Equal(t, "b@x.com", res.Records[1].Values["Email"])
	assert.Empty(t, res.Warnings)
}

func TestRead_CSVWarnsOnCellsWithoutHeader(t *testing.T) {
	body := "Email,Full Name\na@x.com,Ann,extra\n"

	res, err := Read("staff.csv", strings.NewReader(body), 0)

	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 2, res.Warnings[0].Row)
	assert.Len(t, res.Records[0].Values, 2)
}

func TestRead_RowLimit(t *testing.T) {
	body := "Email\na@x.com\nb@x.com\nc@x.com\n"

	res, err := Read("staff.csv", strings.NewReader(body), 2)

	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 4, res.Warnings[0].Row)
}

func TestRead_EmptyFile(t *testing.T) {
	_, err := Read("staff.csv", strings.NewReader(""), 0)
	assert.True(t, errors.Is(err, models.ErrEmptyImport))

	_, err = Read("staff.csv", strings.NewReader("Email,Full Name\n,\n"), 0)
	assert.True(t, errors.Is(err, models.ErrEmptyImport))
}

func TestRead_CSVDecodesUTF16WithBOM(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	body, err := enc.String("Email,Full Name\nzoe@x.com,Zoë Tan\n")
	require.NoError(t, err)

	res, err := Read("staff.csv", strings.NewReader(body), 0)

	require.NoError(t, err)
	assert.Equal(t, "Zoë Tan", res.Records[0].Values["Full Name"])
}

func TestRead_CSVFallsBackToLatin1(t *testing.T) {
	body, err := charmap.ISO8859_1.NewEncoder().String("Email,Full Name\njose@x.com,José\n")
	require.NoError(t, err)

	res, err := Read("staff.csv", strings.NewReader(body), 0)

	require.NoError(t, err)
	assert.Equal(t, "José", res.Records[0].Values["Full Name"])
}

func TestRead_CSVStripsUTF8BOM(t *testing.T) {
	res, err := Read("staff.csv", strings.NewReader("\xEF\xBB\xBFEmail\na@x.com\n"), 0)

	require.NoError(t, err)
	assert.Equal(t, "Email", res.Headers[0])
}

func TestRead_XLSXKeepsCellTypes(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Email", "Basic Salary", "CPF Contribution", "Date of Hire"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"a@x.com", 6500, true, 44727}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	res, err := Read("staff.xlsx", &buf, 0)

	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	values := res.Records[0].Values
	assert.Equal(t, "a@x.com", values["Email"])
	assert.Equal(t, float64(6500), values["Basic Salary"])
	assert.Equal(t, true, values["CPF Contribution"])
	assert.Equal(t, float64(44727), values["Date of Hire"])
}

func TestWriteXLSX_RoundTripsThroughRead(t *testing.T) {
	cat := catalog.Default()
	salary := 6500.0
	cpf := true
	hired := "2022-06-15"
	dept := "Engineering"
	in := []*models.Employee{
		{Email: "ann@x.com", FullName: "Ann Lee", Department: &dept, BasicSalary: &salary,
			CPFContribution: &cpf, DateOfHire: &hired, Skills: []string{"Go", "SQL"},
			CustomFields: map[string]any{"floor": float64(3)}},
		{Email: "bob@x.com", FullName: "Bob Tan"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, cat, in))

	res, err := Read("export.xlsx", &buf, 0)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	got, invalid := normalize.Record(res.Records[0], cat)
	assert.Empty(t, invalid)
	assert.Equal(t, "ann@x.com", got.Email)
	assert.Equal(t, "Ann Lee", got.FullName)
	assert.Equal(t, &dept, got.Department)
	assert.Equal(t, &salary, got.BasicSalary)
	assert.Equal(t, &cpf, got.CPFContribution)
	assert.Equal(t, &hired, got.DateOfHire)
	assert.Equal(t, []string{"Go", "SQL"}, got.Skills)
	assert.Equal(t, map[string]any{"floor": float64(3)}, got.CustomFields)

	second, _ := normalize.Record(res.Records[1], cat)
	assert.Equal(t, "bob@x.com", second.Email)
	assert.Nil(t, second.Department)
}

func TestWriteCSV_HeaderUsesLabels(t *testing.T) {
	cat := catalog.Default()
	var buf bytes.Buffer

	require.NoError(t, WriteCSV(&buf, cat, []*models.Employee{{Email: "a@x.com", FullName: "A"}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	header := strings.Split(lines[0], ",")
	assert.Len(t, header, len(cat.Fields()))
	for _, h := range header {
		_, ok := cat.Resolve(h)
		assert.True(t, ok, "header %q should resolve", h)
	}
}

func TestWriteTemplate_HasHeadersAndGuide(t *testing.T) {
	cat := catalog.Default()
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf, cat))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{employeesSheet, guideSheet}, f.GetSheetList())

	rows, err := f.GetRows(employeesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], len(cat.Fields()))

	guide, err := f.GetRows(guideSheet)
	require.NoError(t, err)
	assert.Len(t, guide, len(cat.Fields())+1)
}
