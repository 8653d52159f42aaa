// Package textlayer reads the text and document information embedded in a
// PDF, independently of OCR.
package textlayer

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/wudi/docflow/document"
)

// PageSeparator follows every page of extracted text.
const PageSeparator = "\n\n"

// ExtractText concatenates the text layer of every page in order. Pages
// that fail to decode are skipped; their errors are joined into the cause
// of the returned Partial.
func ExtractText(path string) document.Partial[string] {
	f, r, err := pdf.Open(path)
	if err != nil {
		return document.Degraded("", &document.ExtractionError{Stage: document.StageTextLayer, Err: err})
	}
	defer f.Close()

	var (
		sb     strings.Builder
		causes []error
	)
	for i := 1; i <= r.NumPage(); i++ {
		text, err := pageText(r, i)
		if err != nil {
			causes = append(causes, err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString(PageSeparator)
	}
	return document.Degraded(sb.String(), causes...)
}

func pageText(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = document.PageError(document.StageTextLayer, n, rec)
		}
	}()
	p := r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", document.PageError(document.StageTextLayer, n, err)
	}
	return text, nil
}

// Info summarizes a PDF: page count, encryption and document information
// dictionary entries.
type Info struct {
	Pages     int               `json:"pages"`
	Encrypted bool              `json:"encrypted"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

var infoKeys = []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer", "CreationDate", "ModDate"}

// ReadInfo gathers Info on a best-effort basis. The structure is read with
// pdfcpu; the information dictionary through the trailer. An error is
// returned only when neither reader can open the file.
func ReadInfo(path string) (Info, error) {
	var info Info
	ctx, cpuErr := api.ReadContextFile(path)
	if cpuErr == nil {
		info.Pages = ctx.PageCount
		info.Encrypted = ctx.Encrypt != nil
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		if cpuErr != nil {
			return Info{}, fmt.Errorf("read pdf info: %w", cpuErr)
		}
		return info, nil
	}
	defer f.Close()
	if cpuErr != nil {
		info.Pages = r.NumPage()
	}
	info.Metadata = readInfoDict(r)
	return info, nil
}

func readInfoDict(r *pdf.Reader) (meta map[string]string) {
	defer func() {
		if recover() != nil {
			meta = nil
		}
	}()
	dict := r.Trailer().Key("Info")
	if dict.IsNull() {
		return nil
	}
	meta = make(map[string]string)
	for _, k := range infoKeys {
		if v := strings.TrimSpace(dict.Key(k).Text()); v != "" {
			meta[k] = v
		}
	}
	for _, k := range dict.Keys() {
		if _, ok := meta[k]; ok || dict.Key(k).Kind() != pdf.String {
			continue
		}
		if v := strings.TrimSpace(dict.Key(k).Text()); v != "" {
			meta[k] = v
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
