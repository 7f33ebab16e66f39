package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.Info("layer quantized", "layer", "q_proj", "format", "fp4")

	output := buf.String()
	if !strings.Contains(output, "layer quantized") {
		t.Fatalf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, `"layer":"q_proj"`) {
		t.Fatalf("expected layer attr in JSON output, got: %s", output)
	}
	if !strings.Contains(output, `"level":"INFO"`) {
		t.Fatalf("expected level INFO in output, got: %s", output)
	}
}

func TestJSONLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("layer quantized")
	log.Debug("group search")

	if buf.Len() > 0 {
		t.Fatalf("expected no output for info/debug at warn level, got: %s", buf.String())
	}

	log.Warn("layer skipped")
	if !strings.Contains(buf.String(), "layer skipped") {
		t.Fatalf("expected warn message in output, got: %s", buf.String())
	}
}

func TestPretty(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelInfo)
	log.Info("layer quantized", "layer", "model.layers.0.mlp.up_proj")

	output := buf.String()
	if !strings.Contains(output, "layer quantized") {
		t.Fatalf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, "layer=model.layers.0.mlp.up_proj") {
		t.Fatalf("expected unquoted tensor name, got: %s", output)
	}
}

func TestPrettyQuotesStringsWithSpaces(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelInfo)
	log.Warn("layer skipped", "reason", "rows not divisible")

	if !strings.Contains(buf.String(), `reason="rows not divisible"`) {
		t.Fatalf("expected quoted reason, got: %s", buf.String())
	}
}

func TestWith(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo).With("run", "r1", "grouping", "per-channel")
	log.Info("run finished")

	output := buf.String()
	if !strings.Contains(output, `"run":"r1"`) || !strings.Contains(output, `"grouping":"per-channel"`) {
		t.Fatalf("expected run attrs in output, got: %s", output)
	}
}

func TestPrettyHandlerWithAttrs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil).WithAttrs([]slog.Attr{slog.String("component", "api")})
	slog.New(h).Info("listening", "addr", ":8080")

	output := buf.String()
	if !strings.Contains(output, "component=api") || !strings.Contains(output, "addr=:8080") {
		t.Fatalf("expected handler attrs in output, got: %s", output)
	}
}

func TestPrettyHandlerEnabled(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("expected warn to be enabled at warn level")
	}
}

func TestFromContextDefault(t *testing.T) {
	t.Parallel()
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext with no logger returned nil")
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), JSON(&buf, slog.LevelInfo))

	FromContext(ctx).Info("analysis complete", "layers", 3)
	if !strings.Contains(buf.String(), `"layers":3`) {
		t.Fatalf("expected message via context logger, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tc := range tests {
		result := ParseLevel(tc.input)
		if result != tc.expected {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tc.input, tc.expected, result)
		}
	}
}

func TestOpenFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{"json", `"layer":"q_proj"`},
		{"JSON", `"layer":"q_proj"`},
		{"text", "layer=q_proj"},
		{"pretty", "layer=q_proj"},
		{"", "layer=q_proj"},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		log, err := Open(&buf, tc.format, "info")
		if err != nil {
			t.Fatalf("Open(%q): %v", tc.format, err)
		}
		log.Info("quantized", "layer", "q_proj")
		if !strings.Contains(buf.String(), tc.want) {
			t.Fatalf("Open(%q): expected %q in output, got: %s", tc.format, tc.want, buf.String())
		}
	}

	if _, err := Open(&bytes.Buffer{}, "xml", "info"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestOpenLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log, err := Open(&buf, "text", "warn")
	if err != nil {
		t.Fatal(err)
	}
	log.Info("hidden")
	if buf.Len() > 0 {
		t.Fatalf("expected no output below warn, got: %s", buf.String())
	}
}

func TestPrettyFloatAndDuration(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil))
	logger.Info("done", "mse", 1.0/3.0, "elapsed", 1500*time.Microsecond)

	output := buf.String()
	if !strings.Contains(output, "mse=0.333333") {
		t.Fatalf("expected short float, got: %s", output)
	}
	if !strings.Contains(output, "elapsed=2ms") {
		t.Fatalf("expected rounded duration, got: %s", output)
	}
}
