package ocr

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoEngine is returned when no real engine has been registered.
var ErrNoEngine = errors.New("ocr: no engine registered")

var defaultEngine Engine = noopEngine{}

// DefaultEngine returns the engine registered by an engine package import
// (ocr/tesseract registers itself from init).
func DefaultEngine() Engine {
	return defaultEngine
}

// SetDefaultEngine sets the library's default OCR engine.
func SetDefaultEngine(engine Engine) {
	defaultEngine = engine
}

// Recognize runs engine over inputs. Batch engines receive all inputs in
// one call; other engines are invoked page by page.
func Recognize(ctx context.Context, engine Engine, inputs []Input) ([]Result, error) {
	if b, ok := engine.(BatchEngine); ok {
		return b.RecognizeBatch(ctx, inputs)
	}
	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		res, err := engine.Recognize(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

type noopEngine struct{}

func (noopEngine) Name() string {
	return "noop"
}

func (noopEngine) Recognize(context.Context, Input) (Result, error) {
	return Result{}, ErrNoEngine
}
