package tables

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
)

// word lays s out as per-character glyphs starting at x, 6pt per character.
func word(x, y float64, s string) []Glyph {
	var out []Glyph
	for i, r := range s {
		out = append(out, Glyph{X: x + float64(i)*6, Y: y, W: 6, FontSize: 10, S: string(r)})
	}
	return out
}

func glyphs(parts ...[]Glyph) []Glyph {
	var out []Glyph
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestDetectSimpleTable(t *testing.T) {
	g := glyphs(
		word(50, 700, "Invoice summary"),
		word(50, 660, "Item"), word(200, 660, "Qty"), word(300, 660, "Price"),
		word(50, 645, "Bolt M4"), word(200, 645, "4"), word(300, 645, "1.20"),
		word(50, 630, "Nut"), word(200, 630, "10"), word(300, 630, "0.35"),
		word(50, 560, "Thank you for your business"),
	)
	grids := DefaultDetector().Detect(g)
	if len(grids) != 1 {
		t.Fatalf("expected 1 table, got %d: %#v", len(grids), grids)
	}
	want := [][]string{
		{"Item", "Qty", "Price"},
		{"Bolt M4", "4", "1.20"},
		{"Nut", "10", "0.35"},
	}
	if !reflect.DeepEqual(grids[0], want) {
		t.Fatalf("unexpected grid %#v", grids[0])
	}
}

func TestDetectWordGapInsertsSpace(t *testing.T) {
	g := glyphs(
		word(50, 700, "Due"), word(72, 700, "date"), word(250, 700, "2024-01-31"),
		word(50, 685, "Total"), word(250, 685, "99.90"),
	)
	grids := DefaultDetector().Detect(g)
	if len(grids) != 1 {
		t.Fatalf("expected 1 table, got %d", len(grids))
	}
	if grids[0][0][0] != "Due date" {
		t.Fatalf("words not joined with a space: %q", grids[0][0][0])
	}
}

func TestDetectProseIsNotATable(t *testing.T) {
	g := glyphs(
		word(50, 700, "Invoice #42"),
		word(50, 685, "Payment due on receipt."),
	)
	if grids := DefaultDetector().Detect(g); len(grids) != 0 {
		t.Fatalf("expected no tables, got %#v", grids)
	}
}

func TestDetectSeparatesDistantRegions(t *testing.T) {
	g := glyphs(
		word(50, 700, "A"), word(200, 700, "B"),
		word(50, 688, "1"), word(200, 688, "2"),
		word(50, 400, "C"), word(200, 400, "D"),
		word(50, 388, "3"), word(200, 388, "4"),
	)
	grids := DefaultDetector().Detect(g)
	if len(grids) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(grids))
	}
	if grids[1][0][0] != "C" {
		t.Fatalf("tables out of order: %#v", grids)
	}
}

func TestDetectMissingCell(t *testing.T) {
	g := glyphs(
		word(50, 700, "Name"), word(200, 700, "Phone"), word(350, 700, "City"),
		word(50, 688, "Ana"), word(350, 688, "Lisboa"),
	)
	grids := DefaultDetector().Detect(g)
	if len(grids) != 1 {
		t.Fatalf("expected 1 table, got %d", len(grids))
	}
	if !reflect.DeepEqual(grids[0][1], []string{"Ana", "", "Lisboa"}) {
		t.Fatalf("cell assigned to wrong column: %#v", grids[0][1])
	}
}

type fakePages struct {
	pages map[int][]Glyph
	fail  map[int]error
	panic int
}

func (f *fakePages) NumPage() int { return 3 }
func (f *fakePages) Close() error { return nil }
func (f *fakePages) Glyphs(n int) ([]Glyph, error) {
	if n == f.panic {
		panic("malformed content stream")
	}
	if err := f.fail[n]; err != nil {
		return nil, err
	}
	return f.pages[n], nil
}

type fakeSource struct {
	pages *fakePages
	err   error
}

func (s fakeSource) Open(string) (Pages, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pages, nil
}

func TestExtractorDegradesPerPage(t *testing.T) {
	table := glyphs(
		word(50, 700, "Item"), word(200, 700, "Qty"),
		word(50, 688, "Bolt"), word(200, 688, "4"),
	)
	src := fakeSource{pages: &fakePages{
		pages: map[int][]Glyph{3: table},
		panic: 1,
		fail:  map[int]error{2: errors.New("bad font")},
	}}
	e := NewExtractor()
	e.Source = src

	res := e.Extract("doc.pdf")
	if !res.Degraded() {
		t.Fatalf("expected degraded result")
	}
	if len(res.Value) != 1 {
		t.Fatalf("expected the healthy page's table, got %d", len(res.Value))
	}
	tbl := res.Value[0]
	if tbl.Page != 3 || tbl.Index != 1 || !reflect.DeepEqual(tbl.Columns, []string{"Item", "Qty"}) {
		t.Fatalf("unexpected table %+v", tbl)
	}
	if !strings.Contains(res.Cause.Error(), "page 1") || !strings.Contains(res.Cause.Error(), "bad font") {
		t.Fatalf("causes not recorded: %v", res.Cause)
	}
}

func TestExtractorOpenFailure(t *testing.T) {
	e := NewExtractor()
	e.Source = fakeSource{err: errors.New("not a pdf")}
	res := e.Extract("x.pdf")
	if !res.Degraded() || res.Value == nil || len(res.Value) != 0 {
		t.Fatalf("expected empty degraded result, got %+v", res)
	}
}

func TestExtractFromPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.pdf")
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()
	pdf.Text(20, 20, "Purchase order")
	pdf.SetXY(20, 40)
	rows := [][]string{{"Item", "Qty", "Price"}, {"Bolt", "4", "1.20"}, {"Nut", "10", "0.35"}}
	for _, row := range rows {
		for _, cell := range row {
			pdf.CellFormat(45, 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetX(20)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("write pdf: %v", err)
	}

	res := NewExtractor().Extract(path)
	if res.Degraded() {
		t.Fatalf("unexpected degradation: %v", res.Cause)
	}
	if len(res.Value) != 1 {
		t.Fatalf("expected 1 table, got %d", len(res.Value))
	}
	tbl := res.Value[0]
	if !reflect.DeepEqual(tbl.Columns, []string{"Item", "Qty", "Price"}) {
		t.Fatalf("unexpected columns %#v", tbl.Columns)
	}
	if tbl.RowCount() != 2 || tbl.Rows[1][1] != "10" {
		t.Fatalf("unexpected rows %#v", tbl.Rows)
	}
}
