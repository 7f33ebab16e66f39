package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samcharles93/quantsim/internal/export"
	"github.com/samcharles93/quantsim/internal/logger"
	"github.com/samcharles93/quantsim/internal/safetensors"
)

func testContext() context.Context {
	return logger.WithContext(context.Background(), logger.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeCheckpoint(t *testing.T) string {
	t.Helper()
	weight := make([]float32, 32)
	for i := range weight {
		weight[i] = float32(i%9-4) * 0.05
	}
	norm := []float32{1, 1, 1, 1, 1, 1, 1, 1}

	w, err := safetensors.FloatTensor("model.layers.0.mlp.up_proj.weight", safetensors.F32, []int{4, 8}, weight)
	if err != nil {
		t.Fatal(err)
	}
	n, err := safetensors.FloatTensor("model.norm.weight", safetensors.F32, []int{8}, norm)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "in.safetensors")
	if err := safetensors.WriteFile(path, []safetensors.TensorData{w, n}, map[string]string{"format": "pt"}); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunQuantize(t *testing.T) {
	t.Parallel()

	in := writeCheckpoint(t)
	dir := t.TempDir()
	opts := quantizeOptions{
		input:   in,
		output:  filepath.Join(dir, "out.safetensors"),
		quant:   quantFlags{datatype: "int4", bits: 4, groupSize: 4},
		meta:    filepath.Join(dir, "out.json"),
		emitAux: true,
		cast:    "f16",
	}
	var stdout bytes.Buffer
	if err := runQuantize(testContext(), opts, &stdout); err != nil {
		t.Fatalf("runQuantize: %v", err)
	}
	if !strings.Contains(stdout.String(), "up_proj") {
		t.Fatalf("summary missing layer: %s", stdout.String())
	}

	f, err := safetensors.Open(opts.output)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	for _, name := range []string{
		"model.layers.0.mlp.up_proj.weight",
		"model.layers.0.mlp.up_proj.weight_q",
		"model.layers.0.mlp.up_proj.weight_scale",
		"model.norm.weight",
	} {
		if _, ok := f.Tensor(name); !ok {
			t.Fatalf("output missing %s (have %v)", name, f.Names())
		}
	}
	if info, _ := f.Tensor("model.norm.weight"); info.DType != safetensors.F16 {
		t.Fatalf("norm dtype = %s, want F16", info.DType)
	}
	if info, _ := f.Tensor("model.layers.0.mlp.up_proj.weight_scale"); len(info.Shape) != 2 || info.Shape[0] != 4 || info.Shape[1] != 2 {
		t.Fatalf("scale shape = %v", info.Shape)
	}
	if f.Metadata["format"] != "pt" {
		t.Fatalf("metadata not preserved: %v", f.Metadata)
	}

	meta, err := export.ReadMeta(opts.meta)
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Tensors) != 1 || meta.GroupSize != 4 || meta.Datatype != "int4" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestRunQuantizeRejectsBadInputs(t *testing.T) {
	t.Parallel()

	in := writeCheckpoint(t)
	out := filepath.Join(t.TempDir(), "out.safetensors")
	base := quantizeOptions{input: in, output: out, quant: quantFlags{datatype: "int4", bits: 4, groupSize: 3}}

	if err := runQuantize(testContext(), base, io.Discard); err == nil {
		t.Fatal("expected group size mismatch")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output written after failure: %v", err)
	}

	bad := base
	bad.quant.groupSize = 4
	bad.cast = "f8"
	if err := runQuantize(testContext(), bad, io.Discard); err == nil {
		t.Fatal("expected cast error")
	}

	bad = base
	bad.quant.groupSize = 4
	bad.meta = "meta.yaml"
	if err := runQuantize(testContext(), bad, io.Discard); err == nil {
		t.Fatal("expected sidecar encoding error")
	}
}

func TestRunAnalyze(t *testing.T) {
	t.Parallel()

	in := writeCheckpoint(t)
	csvPath := filepath.Join(t.TempDir(), "metrics.csv")
	opts := analyzeOptions{
		input:      in,
		tensor:     "model.layers.0.mlp.up_proj.weight",
		datatypes:  []string{"int4", "fp4", "flint4", "mx_fp4"},
		quant:      quantFlags{bits: 4, groupSize: 4},
		csvPath:    csvPath,
		bucketStep: 0.01,
		bucketMax:  0.05,
		threshold:  0.5,
	}
	var stdout bytes.Buffer
	if err := runAnalyze(testContext(), opts, &stdout); err != nil {
		t.Fatalf("runAnalyze: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"flint4", "mx_fp4", "ABS ERR", "BEST FORMAT", "outliers"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 || !strings.HasPrefix(lines[0], "DATATYPE,BITS") {
		t.Fatalf("unexpected csv:\n%s", data)
	}

	opts.tensor = "model.norm.weight"
	if err := runAnalyze(testContext(), opts, io.Discard); err == nil {
		t.Fatal("expected rank error for a vector")
	}
}

func TestRenderDatatypes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderDatatypes(&buf, 3)
	out := buf.String()
	if !strings.Contains(out, "mx_fp3") || strings.Contains(out, "flint4") {
		t.Fatalf("unexpected listing:\n%s", out)
	}
	if !strings.Contains(out, "mixed_bitmod") {
		t.Fatalf("mixed families missing:\n%s", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, " int3 ") && !strings.Contains(line, "candidate") {
			t.Fatalf("int3 should be listed as a candidate table: %q", line)
		}
	}
	if !strings.Contains(out, "candidate") {
		t.Fatalf("candidate tag missing:\n%s", out)
	}
}
