package sheet

import (
	"archive/zip"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wudi/docflow/tables"
)

func sampleTables() []tables.Table {
	return []tables.Table{
		{
			Page: 1, Index: 1, HeaderPromoted: true,
			Columns: []string{"Item", "Qty", "Price"},
			Rows:    [][]string{{"Bolt", "4", "1.20"}, {"A very long description of a nut", "10", "0.35"}},
		},
		{
			Page: 2, Index: 1, HeaderPromoted: true,
			Columns: []string{"A", "B", "C", "D"},
			Rows:    [][]string{{"x", "y", "z", "w"}},
		},
	}
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Pag1_Tab2", SheetName(1, 2))
	assert.LessOrEqual(t, len(SheetName(999, 999)), MaxSheetName)
	long := SheetName(1234567890123, 1234567890123)
	assert.Len(t, long, MaxSheetName)
	assert.True(t, strings.HasPrefix(long, "Pag1234567890123_Tab"))
}

func TestSaveTablesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.xlsx")
	ok, err := SaveTables(nil, path)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSaveTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.xlsx")
	ok, err := SaveTables(sampleTables(), path)
	require.NoError(t, err)
	require.True(t, ok)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Pag1_Tab1", "Pag2_Tab1"}, f.GetSheetList())

	rows, err := f.GetRows("Pag1_Tab1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Item", "Qty", "Price"}, rows[0])
	assert.Equal(t, []string{"Bolt", "4", "1.20"}, rows[1])

	headerID, err := f.GetCellStyle("Pag1_Tab1", "A1")
	require.NoError(t, err)
	header, err := f.GetStyle(headerID)
	require.NoError(t, err)
	require.NotNil(t, header.Font)
	assert.True(t, header.Font.Bold)
	require.Len(t, header.Fill.Color, 1)
	assert.True(t, strings.HasSuffix(strings.ToUpper(header.Fill.Color[0]), HeaderFill))
	require.NotNil(t, header.Alignment)
	assert.Equal(t, "center", header.Alignment.Horizontal)

	numID, err := f.GetCellStyle("Pag1_Tab1", "B2")
	require.NoError(t, err)
	num, err := f.GetStyle(numID)
	require.NoError(t, err)
	require.NotNil(t, num.Alignment)
	assert.Equal(t, "right", num.Alignment.Horizontal)
	assert.NotEmpty(t, num.Border)

	textID, err := f.GetCellStyle("Pag1_Tab1", "A2")
	require.NoError(t, err)
	text, err := f.GetStyle(textID)
	require.NoError(t, err)
	require.NotNil(t, text.Alignment)
	assert.Equal(t, "left", text.Alignment.Horizontal)

	width, err := f.GetColWidth("Pag1_Tab1", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(len("A very long description of a nut")+2), width)
	width, err = f.GetColWidth("Pag1_Tab1", "B")
	require.NoError(t, err)
	assert.Equal(t, float64(5), width)
}

func TestColumnWidthCapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.xlsx")
	tbl := tables.Table{Page: 1, Index: 1, Columns: []string{"Notes"}, Rows: [][]string{{strings.Repeat("x", 80)}}}
	_, err := SaveTables([]tables.Table{tbl}, path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	width, err := f.GetColWidth("Pag1_Tab1", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(MaxColumnWidth), width)
}

func TestCreateSummaryReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	ok, err := CreateSummaryReport(sampleTables(), path)
	require.NoError(t, err)
	require.True(t, ok)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, SummaryHeader, rows[0])
	assert.Equal(t, []string{"1", "1", "2", "3", "Item, Qty, Price"}, rows[1])
	assert.Equal(t, []string{"2", "1", "1", "4", "A, B, C..."}, rows[2])

	ok, err = CreateSummaryReport(nil, filepath.Join(t.TempDir(), "none.xlsx"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsNumber(t *testing.T) {
	for _, v := range []string{"4", "1.20", "-3", " 2.5 ", "1e3"} {
		assert.True(t, IsNumber(v), v)
	}
	for _, v := range []string{"", "1,20", "abc", "4 units"} {
		assert.False(t, IsNumber(v), v)
	}
}

func TestCSVExporter(t *testing.T) {
	dir := t.TempDir()
	exp, err := ExporterFor(CSV)
	require.NoError(t, err)
	files, err := exp.SaveTables(sampleTables(), filepath.Join(dir, "tables.csv"))
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "tables_Pag1_Tab1.csv"),
		filepath.Join(dir, "tables_Pag2_Tab1.csv"),
	}, files)

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Item", "Qty", "Price"},
		{"Bolt", "4", "1.20"},
		{"A very long description of a nut", "10", "0.35"},
	}, records)
}

func TestTextExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.txt")
	exp, err := ExporterFor(TXT)
	require.NoError(t, err)
	_, err = exp.SaveTables(sampleTables(), path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "== Pag1_Tab1 ==")
	assert.Contains(t, out, "== Pag2_Tab1 ==")
	assert.Contains(t, out, "Bolt")
}

func TestDocxExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.docx")
	exp, err := ExporterFor(DOCX)
	require.NoError(t, err)
	_, err = exp.SaveTables([]tables.Table{{
		Page: 1, Index: 1, Columns: []string{"R&D", "<Qty>"}, Rows: [][]string{{"x", "1"}},
	}}, path)
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var body string
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			require.NoError(t, err)
			data, err := io.ReadAll(rc)
			rc.Close()
			require.NoError(t, err)
			body = string(data)
		}
	}
	require.NotEmpty(t, body)
	assert.Contains(t, body, "R&amp;D")
	assert.Contains(t, body, "&lt;Qty&gt;")
	assert.Contains(t, body, "Pag1_Tab1")
}

func TestExporterNothingToWrite(t *testing.T) {
	dir := t.TempDir()
	for _, format := range Formats {
		exp, err := ExporterFor(format)
		require.NoError(t, err)
		files, err := exp.SaveTables(nil, filepath.Join(dir, FileName("tables", format)))
		require.NoError(t, err)
		assert.Empty(t, files, format)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExporterForUnknown(t *testing.T) {
	_, err := ExporterFor("pdf")
	assert.Error(t, err)
}

func TestWriteReportFormats(t *testing.T) {
	dir := t.TempDir()
	header := []string{"Filename", "Status", "Detail"}
	rows := [][]string{{"a.pdf", "Success", "Processed: 0 tables extracted"}}
	for _, format := range Formats {
		exp, err := ExporterFor(format)
		require.NoError(t, err)
		path := filepath.Join(dir, FileName("batch_report", format))
		require.NoError(t, exp.WriteReport(path, header, rows), format)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}
