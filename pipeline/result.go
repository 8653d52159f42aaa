package pipeline

import (
	"errors"
	"fmt"

	"github.com/wudi/docflow/document"
	"github.com/wudi/docflow/tables"
	"github.com/wudi/docflow/textlayer"
)

// MetadataFile is written into every document directory.
const MetadataFile = "metadata.json"

// Result is the record persisted as metadata.json for one document.
type Result struct {
	ID            string           `json:"id"`
	OriginalFile  string           `json:"original_file"`
	ProcessedDate string           `json:"processed_date"`
	OutputDir     string           `json:"output_dir"`
	Kind          document.Kind    `json:"kind"`
	MIME          string           `json:"mime,omitempty"`
	Size          int64            `json:"size"`
	Checksum      string           `json:"checksum"`
	Pages         int              `json:"pages,omitempty"`
	PDFInfo       *textlayer.Info  `json:"pdf_info,omitempty"`
	ExtractedText *string          `json:"extracted_text"`
	Tables        []tables.Summary `json:"tables"`
	TableFiles    []string         `json:"table_files,omitempty"`
	NewFilename   *string          `json:"new_filename"`
	Warnings      []Warning        `json:"warnings,omitempty"`
}

// Warning records a stage that degraded without failing the document.
type Warning struct {
	Stage   document.Stage `json:"stage"`
	Message string         `json:"message"`
}

// Summary is the one-line description returned to callers.
func (r *Result) Summary() string {
	return fmt.Sprintf("Processed: %d tables extracted", len(r.Tables))
}

func (r *Result) warn(stage document.Stage, err error) {
	r.Warnings = append(r.Warnings, Warning{Stage: stage, Message: err.Error()})
}

// ProcessingError wraps any failure that stopped a document, naming the
// file it happened to.
type ProcessingError struct {
	File string
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("process %s: %v", e.File, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// IsUnsupported reports whether err was caused by an unsupported format.
func IsUnsupported(err error) bool {
	return errors.Is(err, document.ErrUnsupportedFormat)
}
