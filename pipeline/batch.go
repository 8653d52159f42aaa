package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/docflow/document"
	"github.com/wudi/docflow/observability"
	"github.com/wudi/docflow/rename"
	"github.com/wudi/docflow/sheet"
)

// Batch report layout.
const (
	ReportBase    = "batch_report"
	StatusSuccess = "Success"
	StatusError   = "Error"
)

// ReportHeader is the header row of the batch report.
var ReportHeader = []string{"Filename", "Status", "Detail"}

// BatchEntry is the outcome of one file of a batch run.
type BatchEntry struct {
	Path     string
	Filename string
	Summary  string
	Err      error
}

// Status returns StatusSuccess or StatusError.
func (e BatchEntry) Status() string {
	if e.Err != nil {
		return StatusError
	}
	return StatusSuccess
}

// Detail returns the summary on success and the error message on failure.
func (e BatchEntry) Detail() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Summary
}

// BatchProcessFolder processes every supported file below folder, in
// lexical walk order, and writes batch_report.<format> at the output root.
// A failing file is recorded in its entry and never stops the run. The
// output root is skipped when it lies inside folder. Each run numbers
// renamed files with its own counter starting at 1.
func (p *Processor) BatchProcessFolder(ctx context.Context, folder string, opts Options) ([]BatchEntry, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	exporter, err := sheet.ExporterFor(opts.OutputFormat)
	if err != nil {
		return nil, err
	}

	ctx, span := p.tracer.StartSpan(ctx, observability.SpanBatch)
	defer span.Finish()
	log := p.logger.With(observability.String("batch", uuid.NewString()), observability.String("folder", folder))
	start := time.Now()

	files, err := p.collect(folder)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("walk %s: %w", folder, err)
	}
	log.Info("batch started", observability.Int("files", len(files)))

	renamer := rename.New().WithClock(p.now)
	entries := make([]BatchEntry, 0, len(files))
	for _, path := range files {
		select {
		case <-ctx.Done():
			span.SetError(ctx.Err())
			return entries, ctx.Err()
		default:
		}
		entry := BatchEntry{Path: path, Filename: filepath.Base(path)}
		res, err := p.process(ctx, path, opts, renamer)
		if err != nil {
			entry.Err = err
			log.Warn("document failed", observability.String("file", entry.Filename), observability.Error("error", err))
		} else {
			entry.Summary = res.Summary()
		}
		entries = append(entries, entry)
	}

	report := filepath.Join(p.outputDir, sheet.FileName(ReportBase, exporter.Format()))
	if err := exporter.WriteReport(report, ReportHeader, ReportRows(entries)); err != nil {
		span.SetError(err)
		return entries, fmt.Errorf("write batch report: %w", err)
	}
	span.SetTag("files", len(entries))
	log.Info("batch finished",
		observability.Int("files", len(entries)),
		observability.Int("failed", Failed(entries)),
		observability.Duration("elapsed", time.Since(start)),
		observability.String("report", report))
	return entries, nil
}

// collect lists the supported files below folder.
func (p *Processor) collect(folder string) ([]string, error) {
	skip, _ := filepath.Abs(p.outputDir)
	var files []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == folder {
				return err
			}
			p.logger.Warn("skipping unreadable entry", observability.String("path", path), observability.Error("error", err))
			return nil
		}
		if d.IsDir() {
			if abs, _ := filepath.Abs(path); path != folder && abs == skip {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && document.Supported(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// ReportRows converts entries into Filename, Status, Detail rows.
func ReportRows(entries []BatchEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Filename, e.Status(), strings.TrimSpace(e.Detail())})
	}
	return rows
}

// Failed counts the entries that ended in error.
func Failed(entries []BatchEntry) int {
	n := 0
	for _, e := range entries {
		if e.Err != nil {
			n++
		}
	}
	return n
}
