// Package observability wires zerolog into this module's ambient logging,
// enriching every log line emitted through a context.Context with trace
// information when one is present.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if parsed, err := zerolog.ParseLevel(s); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = os.Stdout
	if path := os.Getenv("SENTINEL_LOG_PATH"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			w = f
		} else {
			fmt.Fprintf(os.Stderr, "failed to open log file %q: %v\n", path, err)
		}
	}

	Logger = zerolog.New(w).With().Timestamp().Logger()
}

// Logger is the module-wide base logger. Call LoggerWithTrace to get a
// copy enriched with the calling context's span information.
var Logger zerolog.Logger

// LoggerWithTrace returns a zerolog.Logger derived from Logger and
// enriched with trace_id/span_id/trace_sampled when ctx carries a live
// OpenTelemetry span context. It never requires a configured SDK or
// exporter — it only reads whatever span context happens to be attached.
func LoggerWithTrace(ctx context.Context) *zerolog.Logger {
	l := Logger
	if ctx == nil {
		return &l
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		l = l.With().Str("trace_id", sc.TraceID().String()).Logger()
		if sc.HasSpanID() {
			l = l.With().Str("span_id", sc.SpanID().String()).Logger()
		}
		if sc.IsSampled() {
			l = l.With().Bool("trace_sampled", true).Logger()
		}
	}
	return &l
}
