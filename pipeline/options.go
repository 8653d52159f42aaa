package pipeline

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/wudi/docflow/ocr"
	"github.com/wudi/docflow/rename"
	"github.com/wudi/docflow/sheet"
)

// Options selects the stages run for one document. The pipeline never
// modifies it.
type Options struct {
	UseOCR        bool         `json:"use_ocr" yaml:"use_ocr" toml:"use_ocr"`
	Language      string       `json:"language" yaml:"language" toml:"language" validate:"required,ocrlang"`
	ExtractTables bool         `json:"extract_tables" yaml:"extract_tables" toml:"extract_tables"`
	RenameFiles   bool         `json:"rename_files" yaml:"rename_files" toml:"rename_files"`
	RenamePattern string       `json:"rename_pattern" yaml:"rename_pattern" toml:"rename_pattern" validate:"required"`
	OutputFormat  sheet.Format `json:"output_format" yaml:"output_format" toml:"output_format" validate:"oneof=xlsx csv txt docx"`
}

// DefaultOptions returns the options used when a caller has no preference:
// OCR and table extraction on, renaming off, Portuguese, xlsx output.
func DefaultOptions() Options {
	return Options{
		UseOCR:        true,
		Language:      ocr.DefaultLanguage,
		ExtractTables: true,
		RenamePattern: rename.DefaultPattern,
		OutputFormat:  sheet.XLSX,
	}
}

// WithDefaults fills empty string fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Language == "" {
		o.Language = d.Language
	}
	if o.RenamePattern == "" {
		o.RenamePattern = d.RenamePattern
	}
	if o.OutputFormat == "" {
		o.OutputFormat = d.OutputFormat
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	if err := Validator().Struct(o); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// tesseract language codes, optionally combined with "+": por, chi_sim,
// por+eng.
var ocrLang = regexp.MustCompile(`^[a-z]{3}(_[a-z]+)?(\+[a-z]{3}(_[a-z]+)?)*$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the "ocrlang" rule
// registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("ocrlang", func(fl validator.FieldLevel) bool {
			return ocrLang.MatchString(fl.Field().String())
		})
	})
	return validate
}
