package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()
	ctx2, span := tracer.StartSpan(ctx, "test")
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("key", "value")
	span.SetError(nil)
	span.Finish()
}

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZap(zap.New(core)).With(String("file", "a.pdf"))

	logger.Info("processed",
		Int("tables", 2),
		Int64("bytes", 1024),
		Bool("ocr", true),
		Duration("elapsed", time.Second),
		Error("error", errors.New("boom")),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["file"] != "a.pdf" {
		t.Fatalf("missing With field: %+v", ctx)
	}
	if ctx["tables"] != int64(2) || ctx["bytes"] != int64(1024) {
		t.Fatalf("unexpected int fields: %+v", ctx)
	}
	if ctx["ocr"] != true {
		t.Fatalf("unexpected bool field: %+v", ctx)
	}
	if ctx["error"] != "boom" {
		t.Fatalf("unexpected error field: %+v", ctx)
	}
}

func TestNewZapNil(t *testing.T) {
	if _, ok := NewZap(nil).(NopLogger); !ok {
		t.Fatalf("expected NopLogger for nil zap logger")
	}
}

func TestLogTracerReportsSpan(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := NewLogTracer(NewZap(zap.New(core)))

	_, span := tracer.StartSpan(context.Background(), SpanOCR)
	span.SetTag("pages", 3)
	span.SetError(errors.New("tesseract missing"))
	span.Finish()
	span.Finish()

	entries := logs.FilterMessage("span failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one span entry, got %d", logs.Len())
	}
	ctx := entries[0].ContextMap()
	if ctx["span"] != SpanOCR || ctx["pages"] != int64(3) {
		t.Fatalf("unexpected span fields: %+v", ctx)
	}
}
