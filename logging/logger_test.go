package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewFromConfigWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Service: "pricing", Module: "gbs", Level: "debug", Writer: &buf})

	l.Debug("d1 computed", "d1", 0.35)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "pricing", rec["service"])
	assert.Equal(t, "gbs", rec["module"])
	assert.Equal(t, "d1 computed", rec["msg"])
	assert.Contains(t, rec, "timestamp")
	assert.InDelta(t, 0.35, rec["d1"], 1e-12)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Level: "warn", Writer: &buf})

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestTraceHandlerInjectsIDs(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Level: "info", Writer: &buf})

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "price")
	l.With("model", "bs2002").InfoContext(ctx, "priced")
	span.End()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, span.SpanContext().TraceID().String(), rec["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), rec["span_id"])
	assert.Equal(t, "bs2002", rec["model"])
}

func TestFileAndStdoutFanOut(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "pricing.log")
	l := NewFromConfig(Config{Level: "info", File: path, Stdout: true, Writer: &buf, MaxSize: 1})

	l.Info("chain priced", "legs", 4)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "chain priced")
	assert.Contains(t, buf.String(), "chain priced")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}

func TestLogDuration(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Level: "debug", Writer: &buf})

	done := LogDuration(context.Background(), l.Logger, "implied vol", "method", "newton")
	done()

	out := buf.String()
	assert.True(t, strings.Contains(out, "implied vol finished"))
	assert.Contains(t, out, `"method":"newton"`)
	assert.Contains(t, out, "duration")
}
