package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/wudi/docflow/tables"
)

// Format names an output format for tables and reports.
type Format string

const (
	XLSX Format = "xlsx"
	CSV  Format = "csv"
	TXT  Format = "txt"
	DOCX Format = "docx"
)

// Formats lists every supported output format.
var Formats = []Format{XLSX, CSV, TXT, DOCX}

// Exporter writes tables and reports in one format.
type Exporter interface {
	Format() Format
	// SaveTables writes tbls using path as the target file name. It returns
	// the files actually written; none when tbls is empty.
	SaveTables(tbls []tables.Table, path string) ([]string, error)
	// WriteReport writes a single table with the given header to path.
	WriteReport(path string, header []string, rows [][]string) error
}

// ExporterFor returns the exporter for format.
func ExporterFor(format Format) (Exporter, error) {
	switch format {
	case XLSX, "":
		return xlsxExporter{}, nil
	case CSV:
		return csvExporter{}, nil
	case TXT:
		return textExporter{}, nil
	case DOCX:
		return docxExporter{}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// FileName returns base with the format's extension.
func FileName(base string, format Format) string {
	if format == "" {
		format = XLSX
	}
	return base + "." + string(format)
}

type xlsxExporter struct{}

func (xlsxExporter) Format() Format { return XLSX }

func (xlsxExporter) SaveTables(tbls []tables.Table, path string) ([]string, error) {
	ok, err := SaveTables(tbls, path)
	if err != nil || !ok {
		return nil, err
	}
	return []string{path}, nil
}

func (xlsxExporter) WriteReport(path string, header []string, rows [][]string) error {
	return WriteReport(path, header, rows)
}

// csvExporter writes one file per table, named after the sheet the table
// would get in a workbook.
type csvExporter struct{}

func (csvExporter) Format() Format { return CSV }

func (csvExporter) SaveTables(tbls []tables.Table, path string) ([]string, error) {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	var files []string
	for _, t := range tbls {
		name := fmt.Sprintf("%s_%s.csv", stem, SheetName(t.Page, t.Index))
		if err := writeCSV(name, t.Columns, t.Rows); err != nil {
			return files, err
		}
		files = append(files, name)
	}
	return files, nil
}

func (csvExporter) WriteReport(path string, header []string, rows [][]string) error {
	return writeCSV(path, header, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// textExporter writes aligned plain-text tables, one titled block per table.
type textExporter struct{}

func (textExporter) Format() Format { return TXT }

func (textExporter) SaveTables(tbls []tables.Table, path string) ([]string, error) {
	if len(tbls) == 0 {
		return nil, nil
	}
	var sb strings.Builder
	for i, t := range tbls {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "== %s ==\n", SheetName(t.Page, t.Index))
		writeAligned(&sb, t.Columns, t.Rows)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func (textExporter) WriteReport(path string, header []string, rows [][]string) error {
	var sb strings.Builder
	writeAligned(&sb, header, rows)
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func writeAligned(sb *strings.Builder, header []string, rows [][]string) {
	tw := tabwriter.NewWriter(sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

type docxExporter struct{}

func (docxExporter) Format() Format { return DOCX }

func (docxExporter) SaveTables(tbls []tables.Table, path string) ([]string, error) {
	if len(tbls) == 0 {
		return nil, nil
	}
	doc := newDocx()
	for _, t := range tbls {
		doc.heading(SheetName(t.Page, t.Index))
		doc.table(t.Columns, t.Rows)
	}
	if err := doc.save(path); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func (docxExporter) WriteReport(path string, header []string, rows [][]string) error {
	doc := newDocx()
	doc.table(header, rows)
	return doc.save(path)
}
