package ocr

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wudi/docflow/document"
	"github.com/wudi/docflow/observability"
	"github.com/wudi/docflow/raster"
)

const (
	// DefaultLanguage is used when the caller passes an empty language.
	DefaultLanguage = "por"
	// DefaultPSM is tesseract's fully automatic page segmentation mode.
	DefaultPSM = 3
)

// FallbackLanguages is reported when the engine cannot enumerate its
// installed languages.
var FallbackLanguages = []string{"eng", "por", "spa"}

// Recognizer extracts text from PDF and image files.
type Recognizer struct {
	Engine     Engine
	Rasterizer raster.Rasterizer
	DPI        int
	PSM        int
	Logger     observability.Logger
}

// NewRecognizer returns a Recognizer using engine (DefaultEngine when nil)
// and MuPDF page rendering at raster.DefaultDPI.
func NewRecognizer(engine Engine) *Recognizer {
	if engine == nil {
		engine = DefaultEngine()
	}
	return &Recognizer{
		Engine:     engine,
		Rasterizer: raster.Fitz{},
		DPI:        raster.DefaultDPI,
		PSM:        DefaultPSM,
		Logger:     observability.NopLogger{},
	}
}

// ExtractText recognizes the text of the file at path. PDF pages are
// rendered and each page block is prefixed with a "--- Página N ---" marker;
// images yield the recognized text as is. language accepts tesseract's
// "a+b" syntax.
func (r *Recognizer) ExtractText(ctx context.Context, path, language string) (string, error) {
	kind, err := document.KindOf(path)
	if err != nil {
		return "", err
	}
	opts := r.inputOptions(language)

	var inputs []Input
	switch kind {
	case document.KindPDF:
		_, err = r.Rasterizer.Rasterize(ctx, path, float64(r.dpi()), func(page int, img image.Image) error {
			in, err := InputFromImage(Preprocess(img), page, opts...)
			if err != nil {
				return err
			}
			inputs = append(inputs, in)
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("rasterize %s: %w", filepath.Base(path), err)
		}
	default:
		img, err := raster.DecodeFile(path)
		if err != nil {
			return "", err
		}
		in, err := InputFromImage(Preprocess(img), 1, opts...)
		if err != nil {
			return "", err
		}
		inputs = append(inputs, in)
	}

	r.logger().Debug("ocr start",
		observability.String("file", filepath.Base(path)),
		observability.String("engine", r.Engine.Name()),
		observability.Int("pages", len(inputs)),
	)
	results, err := Recognize(ctx, r.Engine, inputs)
	if err != nil {
		return "", err
	}
	if kind != document.KindPDF {
		if len(results) == 0 {
			return "", nil
		}
		return results[0].PlainText, nil
	}
	return FormatPages(results), nil
}

// FormatPages joins per-page results in page order, each block delimited
// by its page marker.
func FormatPages(results []Result) string {
	parts := make([]string, len(results))
	for i, res := range results {
		page := res.Page
		if page == 0 {
			page = i + 1
		}
		parts[i] = fmt.Sprintf("--- Página %d ---\n%s\n", page, res.PlainText)
	}
	return strings.Join(parts, "\n")
}

// AvailableLanguages lists installed recognition languages, falling back to
// FallbackLanguages when the engine cannot enumerate them.
func (r *Recognizer) AvailableLanguages() []string {
	lister, ok := r.Engine.(LanguageLister)
	if !ok {
		return append([]string(nil), FallbackLanguages...)
	}
	langs, err := lister.Languages()
	if err != nil || len(langs) == 0 {
		if err != nil {
			r.logger().Warn("list ocr languages", observability.Error("error", err))
		}
		return append([]string(nil), FallbackLanguages...)
	}
	sort.Strings(langs)
	return langs
}

func (r *Recognizer) inputOptions(language string) []InputOption {
	if language == "" {
		language = DefaultLanguage
	}
	psm := r.PSM
	if psm <= 0 {
		psm = DefaultPSM
	}
	return []InputOption{
		WithLanguages(strings.Split(language, "+")...),
		WithDPI(r.dpi()),
		WithTesseractPSM(psm),
	}
}

func (r *Recognizer) dpi() int {
	if r.DPI <= 0 {
		return raster.DefaultDPI
	}
	return r.DPI
}

func (r *Recognizer) logger() observability.Logger {
	if r.Logger == nil {
		return observability.NopLogger{}
	}
	return r.Logger
}
