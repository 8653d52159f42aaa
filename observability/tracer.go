package observability

import (
	"context"
	"fmt"
	"sort"
	"time"
)

type logTracer struct {
	logger Logger
	now    func() time.Time
}

// NewLogTracer returns a tracer that reports every finished span as a debug
// log line carrying its duration, tags and error.
func NewLogTracer(logger Logger) Tracer {
	if logger == nil {
		logger = NopLogger{}
	}
	return &logTracer{logger: logger, now: time.Now}
}

func (t *logTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &logSpan{tracer: t, name: name, start: t.now(), tags: map[string]interface{}{}}
}

type logSpan struct {
	tracer   *logTracer
	name     string
	start    time.Time
	tags     map[string]interface{}
	err      error
	finished bool
}

func (s *logSpan) SetTag(key string, value interface{}) { s.tags[key] = value }
func (s *logSpan) SetError(err error)                   { s.err = err }

func (s *logSpan) Finish() {
	if s.finished {
		return
	}
	s.finished = true
	fields := []Field{
		String("span", s.name),
		Duration("elapsed", s.tracer.now().Sub(s.start)),
	}
	keys := make([]string, 0, len(s.tags))
	for k := range s.tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := s.tags[k].(type) {
		case string:
			fields = append(fields, String(k, v))
		case int:
			fields = append(fields, Int(k, v))
		case bool:
			fields = append(fields, Bool(k, v))
		default:
			fields = append(fields, String(k, fmt.Sprint(v)))
		}
	}
	if s.err != nil {
		s.tracer.logger.Debug("span failed", append(fields, Error("error", s.err))...)
		return
	}
	s.tracer.logger.Debug("span finished", fields...)
}
