package document

import (
	"errors"
	"fmt"
)

// Stage names a best-effort extraction step.
type Stage string

const (
	StageOCR       Stage = "ocr"
	StageTextLayer Stage = "text-layer"
	StageTables    Stage = "tables"
	StageRaster    Stage = "raster"
)

// ExtractionError records a failure inside one extraction stage. Page is
// 1-based; zero means the failure was not tied to a page.
type ExtractionError struct {
	Stage Stage
	Page  int
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s: page %d: %v", e.Stage, e.Page, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// PageError builds an ExtractionError for a page, converting recovered panic
// values into errors.
func PageError(stage Stage, page int, cause any) *ExtractionError {
	var err error
	switch v := cause.(type) {
	case error:
		err = v
	default:
		err = fmt.Errorf("panic: %v", v)
	}
	return &ExtractionError{Stage: stage, Page: page, Err: err}
}

// Partial is the outcome of a best-effort operation. A nil Cause means the
// value is complete; otherwise Value holds whatever was recovered.
type Partial[T any] struct {
	Value T
	Cause error
}

// Ok wraps a complete value.
func Ok[T any](v T) Partial[T] { return Partial[T]{Value: v} }

// Degraded wraps a partial value together with the reasons it is partial.
func Degraded[T any](v T, causes ...error) Partial[T] {
	return Partial[T]{Value: v, Cause: errors.Join(causes...)}
}

// Degraded reports whether the value is incomplete.
func (p Partial[T]) Degraded() bool { return p.Cause != nil }
