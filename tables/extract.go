package tables

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/wudi/docflow/document"
	"github.com/wudi/docflow/observability"
)

// Pages gives page-by-page access to positioned glyphs.
type Pages interface {
	NumPage() int
	Glyphs(page int) ([]Glyph, error)
	Close() error
}

// Source opens documents for glyph access.
type Source interface {
	Open(path string) (Pages, error)
}

// PDFSource reads glyphs from a PDF's content streams.
type PDFSource struct{}

type pdfPages struct {
	f *os.File
	r *pdf.Reader
}

func (PDFSource) Open(path string) (Pages, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &pdfPages{f: f, r: r}, nil
}

func (p *pdfPages) NumPage() int { return p.r.NumPage() }
func (p *pdfPages) Close() error { return p.f.Close() }

func (p *pdfPages) Glyphs(n int) (glyphs []Glyph, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("read content: %v", rec)
		}
	}()
	page := p.r.Page(n)
	if page.V.IsNull() {
		return nil, nil
	}
	content := page.Content()
	glyphs = make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return glyphs, nil
}

// Extractor runs the detector over every page of a document.
type Extractor struct {
	Source   Source
	Detector Detector
	Logger   observability.Logger
}

// NewExtractor returns an Extractor reading PDFs with the default detector.
func NewExtractor() *Extractor {
	return &Extractor{Source: PDFSource{}, Detector: DefaultDetector(), Logger: observability.NopLogger{}}
}

// Extract returns every table that survives cleanup, in page order. It
// never fails: unreadable documents yield no tables and unreadable pages are
// skipped, with the reasons kept in the Partial's cause.
func (e *Extractor) Extract(path string) document.Partial[[]Table] {
	tables := []Table{}
	pages, err := e.Source.Open(path)
	if err != nil {
		return document.Degraded(tables, &document.ExtractionError{Stage: document.StageTables, Err: err})
	}
	defer pages.Close()

	var causes []error
	for n := 1; n <= pages.NumPage(); n++ {
		found, err := e.page(pages, n)
		if err != nil {
			e.logger().Warn("table extraction failed for page",
				observability.Int("page", n),
				observability.Error("error", err),
			)
			causes = append(causes, err)
			continue
		}
		tables = append(tables, found...)
	}
	return document.Degraded(tables, causes...)
}

func (e *Extractor) page(pages Pages, n int) (found []Table, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			found, err = nil, document.PageError(document.StageTables, n, rec)
		}
	}()
	glyphs, err := pages.Glyphs(n)
	if err != nil {
		return nil, document.PageError(document.StageTables, n, err)
	}
	for i, grid := range e.Detector.Detect(glyphs) {
		if t, ok := Build(n, i+1, grid); ok {
			found = append(found, t)
		}
	}
	return found, nil
}

func (e *Extractor) logger() observability.Logger {
	if e.Logger == nil {
		return observability.NopLogger{}
	}
	return e.Logger
}
