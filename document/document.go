// Package document models a single input file handed to the processing
// pipeline: its detected kind, extension and sniffed content type.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedFormat reports an extension outside the supported set.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Kind is the coarse document type used for dispatch.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

var kinds = map[string]Kind{
	".pdf":  KindPDF,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".tiff": KindImage,
	".tif":  KindImage,
	".bmp":  KindImage,
}

// Document is one input file. It is immutable once detected.
type Document struct {
	Path string
	Kind Kind
	Ext  string
	MIME string
	Size int64
}

// Name returns the base name of the document path.
func (d Document) Name() string { return filepath.Base(d.Path) }

// Stem returns the base name without extension.
func (d Document) Stem() string {
	name := d.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// KindOf maps a file name to its kind by extension.
func KindOf(name string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(name))
	k, ok := kinds[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return k, nil
}

// Supported reports whether name carries a supported extension.
func Supported(name string) bool {
	_, err := KindOf(name)
	return err == nil
}

// Extensions lists the supported extensions in a stable order.
func Extensions() []string {
	return []string{".pdf", ".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}
}

// Detect resolves path to an absolute Document. The extension check runs
// before the file is touched so unsupported input never causes side effects.
func Detect(path string) (Document, error) {
	kind, err := KindOf(path)
	if err != nil {
		return Document{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Document{}, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Document{}, fmt.Errorf("stat document: %w", err)
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("%s is a directory", abs)
	}
	doc := Document{
		Path: abs,
		Kind: kind,
		Ext:  strings.ToLower(filepath.Ext(abs)),
		Size: info.Size(),
	}
	// Sniffing is informational; an unreadable header is left to the stage
	// that actually opens the file.
	if mt, err := mimetype.DetectFile(abs); err == nil {
		doc.MIME = mt.String()
	}
	return doc, nil
}
