// Package pipeline turns one document, or a folder of documents, into an
// output directory of derived artifacts: page images, text, tables, a renamed
// copy and a metadata record.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/docflow/document"
	"github.com/wudi/docflow/fileutil"
	"github.com/wudi/docflow/observability"
	"github.com/wudi/docflow/ocr"
	"github.com/wudi/docflow/raster"
	"github.com/wudi/docflow/rename"
	"github.com/wudi/docflow/sheet"
	"github.com/wudi/docflow/tables"
	"github.com/wudi/docflow/textlayer"
)

// Artifact names inside a document directory.
const (
	OriginalBase  = "original"
	PageImageFmt  = "page_%d.jpg"
	TextLayerFile = "pdf_text.txt"
	OptimizedFile = "optimized.jpg"
	OCRTextFile   = "extracted_text.txt"
	TablesBase    = "tables"
	DirPrefix     = "doc_"
	DirTimeLayout = "20060102_150405"
)

// TextRecognizer extracts text from a PDF or image file.
type TextRecognizer interface {
	ExtractText(ctx context.Context, path, language string) (string, error)
}

// TableExtractor finds the tables of a PDF on a best-effort basis.
type TableExtractor interface {
	Extract(path string) document.Partial[[]tables.Table]
}

// Processor runs the pipeline. A Processor handles one document at a time;
// its Renamer counter spans every ProcessDocument call made on it.
type Processor struct {
	outputDir     string
	tempDir       string
	keepTempFiles bool
	dpi           float64
	quality       int

	recognizer TextRecognizer
	rasterizer raster.Rasterizer
	tables     TableExtractor
	renamer    *rename.Renamer

	logger observability.Logger
	tracer observability.Tracer
	now    func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for stage progress and warnings.
func WithLogger(l observability.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTracer sets the tracer that receives one span per stage.
func WithTracer(t observability.Tracer) Option {
	return func(p *Processor) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithRecognizer replaces the OCR backend.
func WithRecognizer(r TextRecognizer) Option {
	return func(p *Processor) { p.recognizer = r }
}

// WithRasterizer replaces the PDF page renderer.
func WithRasterizer(r raster.Rasterizer) Option {
	return func(p *Processor) { p.rasterizer = r }
}

// WithTableExtractor replaces the table extractor.
func WithTableExtractor(e TableExtractor) Option {
	return func(p *Processor) { p.tables = e }
}

// WithRenamer sets the Renamer whose counter ProcessDocument advances.
func WithRenamer(r *rename.Renamer) Option {
	return func(p *Processor) { p.renamer = r }
}

// WithClock sets the time source for directory names and timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithTempDir sets the parent of the per-call scratch directories.
// Empty means os.TempDir.
func WithTempDir(dir string) Option {
	return func(p *Processor) { p.tempDir = dir }
}

// WithKeepTempFiles leaves scratch directories on disk after each call.
func WithKeepTempFiles(keep bool) Option {
	return func(p *Processor) { p.keepTempFiles = keep }
}

// WithDPI sets the page rendering resolution.
func WithDPI(dpi float64) Option {
	return func(p *Processor) {
		if dpi > 0 {
			p.dpi = dpi
		}
	}
}

// WithJPEGQuality sets the quality of every JPEG the pipeline writes.
func WithJPEGQuality(q int) Option {
	return func(p *Processor) {
		if q > 0 && q <= 100 {
			p.quality = q
		}
	}
}

// New returns a Processor writing document directories under outputDir.
// Unless overridden, OCR uses ocr.DefaultEngine, pages are rendered with
// MuPDF and tables are detected from the PDF text layer.
func New(outputDir string, opts ...Option) *Processor {
	p := &Processor{
		outputDir: outputDir,
		dpi:       raster.DefaultDPI,
		quality:   raster.DefaultQuality,
		logger:    observability.NopLogger{},
		tracer:    observability.NopTracer(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rasterizer == nil {
		p.rasterizer = raster.Fitz{}
	}
	if p.recognizer == nil {
		r := ocr.NewRecognizer(nil)
		r.Rasterizer = p.rasterizer
		r.DPI = int(p.dpi)
		r.Logger = p.logger
		p.recognizer = r
	}
	if p.tables == nil {
		e := tables.NewExtractor()
		e.Logger = p.logger
		p.tables = e
	}
	if p.renamer == nil {
		p.renamer = rename.New().WithClock(p.now)
	}
	return p
}

// OutputDir returns the root under which document directories are created.
func (p *Processor) OutputDir() string { return p.outputDir }

// ProcessDocument runs the pipeline over the file at path and returns a one
// line summary. Failures are reported as *ProcessingError; an unsupported
// extension fails before anything is written.
func (p *Processor) ProcessDocument(ctx context.Context, path string, opts Options) (string, error) {
	res, err := p.Process(ctx, path, opts)
	if err != nil {
		return "", err
	}
	return res.Summary(), nil
}

// Process is ProcessDocument returning the full Result that was written to
// metadata.json.
func (p *Processor) Process(ctx context.Context, path string, opts Options) (*Result, error) {
	return p.process(ctx, path, opts, p.renamer)
}

func (p *Processor) process(ctx context.Context, path string, opts Options, renamer *rename.Renamer) (res *Result, err error) {
	ctx, span := p.tracer.StartSpan(ctx, observability.SpanProcessDocument)
	span.SetTag("file", filepath.Base(path))
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	fail := func(err error) (*Result, error) {
		return nil, &ProcessingError{File: filepath.Base(path), Err: err}
	}

	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return fail(err)
	}
	doc, err := document.Detect(path)
	if err != nil {
		return fail(err)
	}
	exporter, err := sheet.ExporterFor(opts.OutputFormat)
	if err != nil {
		return fail(err)
	}

	now := p.now()
	dir, err := p.allocateDir(now)
	if err != nil {
		return fail(err)
	}
	scratch, err := os.MkdirTemp(p.tempDir, "docflow-*")
	if err != nil {
		return fail(fmt.Errorf("create scratch dir: %w", err))
	}
	defer p.cleanup(scratch)

	log := p.logger.With(observability.String("file", doc.Name()), observability.String("dir", dir))
	log.Info("processing document", observability.String("kind", string(doc.Kind)), observability.Int64("size", doc.Size))

	res = &Result{
		ID:            uuid.NewString(),
		OriginalFile:  doc.Name(),
		ProcessedDate: now.Format(time.RFC3339),
		OutputDir:     dir,
		Kind:          doc.Kind,
		MIME:          doc.MIME,
		Size:          doc.Size,
		Tables:        []tables.Summary{},
	}

	if err := fileutil.CopyFile(doc.Path, filepath.Join(dir, OriginalBase+filepath.Ext(doc.Path))); err != nil {
		return fail(fmt.Errorf("copy original: %w", err))
	}
	if res.Checksum, err = fileutil.Checksum(doc.Path); err != nil {
		return fail(err)
	}

	switch doc.Kind {
	case document.KindPDF:
		if err := p.renderPages(ctx, doc, dir, res); err != nil {
			return fail(err)
		}
		p.extractTextLayer(ctx, doc, dir, res, log)
	case document.KindImage:
		if err := p.normalize(ctx, doc, dir); err != nil {
			return fail(err)
		}
	}

	if opts.UseOCR {
		if err := p.recognize(ctx, doc, dir, opts.Language, res, log); err != nil {
			return fail(err)
		}
	}

	if opts.ExtractTables && doc.Kind == document.KindPDF {
		if err := p.extractTables(ctx, doc, dir, scratch, exporter, res, log); err != nil {
			return fail(err)
		}
	}

	if opts.RenameFiles {
		_, rspan := p.tracer.StartSpan(ctx, observability.SpanRename)
		name, err := renamer.Rename(doc.Path, dir, opts.RenamePattern)
		rspan.SetError(err)
		rspan.Finish()
		if err != nil {
			return fail(fmt.Errorf("rename: %w", err))
		}
		res.NewFilename = &name
	}

	if err := writeMetadata(dir, res); err != nil {
		return fail(err)
	}
	log.Info("document processed", observability.Int("tables", len(res.Tables)), observability.Int("warnings", len(res.Warnings)))
	return res, nil
}

// allocateDir creates doc_<timestamp> under the output root, appending _2,
// _3 and so on when a directory with that name already exists.
func (p *Processor) allocateDir(now time.Time) (string, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output root: %w", err)
	}
	base := filepath.Join(p.outputDir, DirPrefix+now.Format(DirTimeLayout))
	dir := base
	for n := 2; ; n++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return filepath.Abs(dir)
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("create output dir: %w", err)
		}
		dir = fmt.Sprintf("%s_%d", base, n)
	}
}

func (p *Processor) cleanup(scratch string) {
	if p.keepTempFiles {
		p.logger.Debug("keeping scratch dir", observability.String("dir", scratch))
		return
	}
	if err := os.RemoveAll(scratch); err != nil {
		p.logger.Warn("remove scratch dir", observability.String("dir", scratch), observability.Error("error", err))
	}
}

func (p *Processor) renderPages(ctx context.Context, doc document.Document, dir string, res *Result) (err error) {
	ctx, span := p.tracer.StartSpan(ctx, observability.SpanRasterize)
	defer func() {
		span.SetError(err)
		span.Finish()
	}()
	jpeg := raster.Options{Quality: p.quality}
	n, err := p.rasterizer.Rasterize(ctx, doc.Path, p.dpi, func(page int, img image.Image) error {
		return raster.WriteJPEG(filepath.Join(dir, fmt.Sprintf(PageImageFmt, page)), img, jpeg)
	})
	span.SetTag("pages", n)
	if err != nil {
		return fmt.Errorf("rasterize: %w", err)
	}
	res.Pages = n
	return nil
}

func (p *Processor) extractTextLayer(ctx context.Context, doc document.Document, dir string, res *Result, log observability.Logger) {
	_, span := p.tracer.StartSpan(ctx, observability.SpanTextLayer)
	defer span.Finish()

	text := textlayer.ExtractText(doc.Path)
	if text.Degraded() {
		span.SetError(text.Cause)
		log.Warn("text layer degraded", observability.Error("error", text.Cause))
		res.warn(document.StageTextLayer, text.Cause)
	}
	if strings.TrimSpace(text.Value) != "" {
		if err := os.WriteFile(filepath.Join(dir, TextLayerFile), []byte(text.Value), 0o644); err != nil {
			res.warn(document.StageTextLayer, err)
		}
	}

	info, err := textlayer.ReadInfo(doc.Path)
	if err != nil {
		log.Debug("pdf info unavailable", observability.Error("error", err))
		return
	}
	res.PDFInfo = &info
}

func (p *Processor) normalize(ctx context.Context, doc document.Document, dir string) (err error) {
	_, span := p.tracer.StartSpan(ctx, observability.SpanNormalize)
	defer func() {
		span.SetError(err)
		span.Finish()
	}()
	if err := raster.Normalize(doc.Path, filepath.Join(dir, OptimizedFile), raster.Options{Quality: p.quality}); err != nil {
		return fmt.Errorf("normalize image: %w", err)
	}
	return nil
}

// recognize records OCR failures as warnings. Only cancellation is returned.
func (p *Processor) recognize(ctx context.Context, doc document.Document, dir, language string, res *Result, log observability.Logger) error {
	ctx, span := p.tracer.StartSpan(ctx, observability.SpanOCR)
	defer span.Finish()
	span.SetTag("language", language)

	start := time.Now()
	text, err := p.recognizer.ExtractText(ctx, doc.Path, language)
	if err != nil {
		span.SetError(err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Warn("ocr failed", observability.Error("error", err))
		res.warn(document.StageOCR, err)
		return nil
	}
	if err := os.WriteFile(filepath.Join(dir, OCRTextFile), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write ocr text: %w", err)
	}
	res.ExtractedText = &text
	log.Debug("ocr finished", observability.Duration("elapsed", time.Since(start)), observability.Int("chars", len(text)))
	return nil
}

// extractTables exports into scratch first and moves the written files into
// dir, so a failed export leaves no partial table files behind.
func (p *Processor) extractTables(ctx context.Context, doc document.Document, dir, scratch string, exp sheet.Exporter, res *Result, log observability.Logger) (err error) {
	_, span := p.tracer.StartSpan(ctx, observability.SpanTables)
	defer func() {
		span.SetError(err)
		span.Finish()
	}()

	found := p.tables.Extract(doc.Path)
	if found.Degraded() {
		log.Warn("table extraction degraded", observability.Error("error", found.Cause))
		res.warn(document.StageTables, found.Cause)
	}
	res.Tables = tables.Summaries(found.Value)
	span.SetTag("tables", len(found.Value))
	if len(found.Value) == 0 {
		return nil
	}

	written, err := exp.SaveTables(found.Value, filepath.Join(scratch, sheet.FileName(TablesBase, exp.Format())))
	if err != nil {
		return fmt.Errorf("export tables: %w", err)
	}
	for _, f := range written {
		name := filepath.Base(f)
		if err := fileutil.Move(f, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("export tables: %w", err)
		}
		res.TableFiles = append(res.TableFiles, name)
	}
	return nil
}

func writeMetadata(dir string, res *Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, MetadataFile), data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
