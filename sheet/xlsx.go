// Package sheet writes extracted tables and reports as spreadsheets and
// related tabular formats.
package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/wudi/docflow/tables"
)

const (
	// MaxSheetName is the sheet name length limit of the xlsx format.
	MaxSheetName = 31
	// MaxColumnWidth caps auto-sized column widths.
	MaxColumnWidth = 50
	// HeaderFill is the header background color.
	HeaderFill = "366092"
)

// SheetName returns the sheet name for a table, truncated to MaxSheetName
// characters.
func SheetName(page, index int) string {
	name := fmt.Sprintf("Pag%d_Tab%d", page, index)
	if utf8.RuneCountInString(name) > MaxSheetName {
		name = string([]rune(name)[:MaxSheetName])
	}
	return name
}

// SaveTables writes one formatted sheet per table to an xlsx workbook at
// path. It reports false without error when there is nothing to write.
func SaveTables(tbls []tables.Table, path string) (bool, error) {
	if len(tbls) == 0 {
		return false, nil
	}
	w, err := newWorkbook()
	if err != nil {
		return false, err
	}
	defer w.f.Close()

	for i, t := range tbls {
		name := SheetName(t.Page, t.Index)
		if err := w.addSheet(i, name); err != nil {
			return false, err
		}
		if err := w.writeTable(name, t.Columns, t.Rows); err != nil {
			return false, fmt.Errorf("write sheet %s: %w", name, err)
		}
	}
	if err := w.f.SaveAs(path); err != nil {
		return false, fmt.Errorf("save workbook: %w", err)
	}
	return true, nil
}

// SummaryHeader is the header row of the table summary report.
var SummaryHeader = []string{"Page", "Table", "Rows", "Columns", "Column names"}

// CreateSummaryReport writes one row per table with its position,
// dimensions and first three column names.
func CreateSummaryReport(tbls []tables.Table, path string) (bool, error) {
	if len(tbls) == 0 {
		return false, nil
	}
	if err := WriteReport(path, SummaryHeader, SummaryRows(tbls)); err != nil {
		return false, err
	}
	return true, nil
}

// SummaryRows renders the rows of the summary report.
func SummaryRows(tbls []tables.Table) [][]string {
	rows := make([][]string, 0, len(tbls))
	for _, t := range tbls {
		rows = append(rows, []string{
			strconv.Itoa(t.Page),
			strconv.Itoa(t.Index),
			strconv.Itoa(t.RowCount()),
			strconv.Itoa(t.ColCount()),
			ColumnPreview(t.Columns),
		})
	}
	return rows
}

// ColumnPreview joins the first three column names, appending "..." when
// more exist.
func ColumnPreview(cols []string) string {
	if len(cols) <= 3 {
		return strings.Join(cols, ", ")
	}
	return strings.Join(cols[:3], ", ") + "..."
}

// WriteReport writes a single formatted sheet with header and rows.
func WriteReport(path string, header []string, rows [][]string) error {
	w, err := newWorkbook()
	if err != nil {
		return err
	}
	defer w.f.Close()
	if err := w.addSheet(0, "Report"); err != nil {
		return err
	}
	if err := w.writeTable("Report", header, rows); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

type workbook struct {
	f      *excelize.File
	header int
	left   int
	right  int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	w := &workbook{f: f}
	var err error
	if w.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{HeaderFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    border,
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	if w.left, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
		Border:    border,
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("text style: %w", err)
	}
	if w.right, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    border,
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("number style: %w", err)
	}
	return w, nil
}

// addSheet renames the default sheet for the first table and appends new
// sheets for the rest.
func (w *workbook) addSheet(i int, name string) error {
	if i == 0 {
		return w.f.SetSheetName(w.f.GetSheetName(0), name)
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	return nil
}

func (w *workbook) writeTable(sheet string, header []string, rows [][]string) error {
	ncols := len(header)
	for _, row := range rows {
		ncols = max(ncols, len(row))
	}
	widths := make([]int, ncols)

	for c, v := range header {
		if err := w.set(sheet, c+1, 1, v, w.header); err != nil {
			return err
		}
		widths[c] = max(widths[c], utf8.RuneCountInString(v))
	}
	for r, row := range rows {
		for c := 0; c < ncols; c++ {
			v := ""
			if c < len(row) {
				v = row[c]
			}
			style := w.left
			if IsNumber(v) {
				style = w.right
			}
			if err := w.set(sheet, c+1, r+2, v, style); err != nil {
				return err
			}
			widths[c] = max(widths[c], utf8.RuneCountInString(v))
		}
	}
	for c, width := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(sheet, col, col, float64(min(width+2, MaxColumnWidth))); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) set(sheet string, col, row int, v string, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStr(sheet, cell, v); err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, cell, cell, style)
}

// IsNumber reports whether v parses as a floating point number.
func IsNumber(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}
