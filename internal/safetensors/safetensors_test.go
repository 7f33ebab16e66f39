package safetensors

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

// writeRaw writes a header and payload verbatim, for malformed inputs the
// writer refuses to produce.
func writeRaw(t *testing.T, path string, header any, payload []byte) {
	t.Helper()
	headerBytes, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	var buf bytes.Buffer
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(headerBytes)))
	buf.Write(lenBuf[:])
	buf.Write(headerBytes)
	buf.Write(payload)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func openFile(t *testing.T, path string) *File {
	t.Helper()
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWriteThenOpen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "model.safetensors")

	w, err := FloatTensor("layer.weight", F32, []int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatal(err)
	}
	b, err := FloatTensor("layer.bias", F16, []int{2}, []float32{0.5, -2})
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, []TensorData{w, b}, map[string]string{"format": "pt"}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f := openFile(t, path)
	if f.Path != path {
		t.Fatalf("expected path %q, got %q", path, f.Path)
	}
	if diff := cmp.Diff([]string{"layer.bias", "layer.weight"}, f.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if f.Metadata["format"] != "pt" {
		t.Fatalf("metadata = %v", f.Metadata)
	}
	if f.DataStart%8 != 0 {
		t.Fatalf("data start %d not 8-byte aligned", f.DataStart)
	}

	got, info, err := f.ReadTensorF32("layer.weight")
	if err != nil {
		t.Fatalf("ReadTensorF32: %v", err)
	}
	if info.DType != F32 || info.NumElements() != 6 {
		t.Fatalf("info = %+v", info)
	}
	if diff := cmp.Diff([]float32{1, 2, 3, 4, 5, 6}, got); diff != "" {
		t.Fatalf("weight (-want +got):\n%s", diff)
	}
	bias, _, err := f.ReadTensorF32("layer.bias")
	if err != nil {
		t.Fatalf("ReadTensorF32 bias: %v", err)
	}
	if diff := cmp.Diff([]float32{0.5, -2}, bias); diff != "" {
		t.Fatalf("bias (-want +got):\n%s", diff)
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	t.Parallel()

	a := TensorData{Name: "a", DType: U8, Shape: []int{2}, Data: []byte{1, 2}}
	b := TensorData{Name: "b", DType: I8, Shape: []int{1}, Data: []byte{3}}
	var first, second bytes.Buffer
	if err := Write(&first, []TensorData{a, b}, nil); err != nil {
		t.Fatal(err)
	}
	if err := Write(&second, []TensorData{b, a}, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatal("output depends on input order")
	}

	f, err := Parse(first.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	raw, _, err := f.ReadTensor("b")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, []byte{3}) {
		t.Fatalf("b = %v", raw)
	}
}

func TestWriteRejectsSizeMismatch(t *testing.T) {
	t.Parallel()

	bad := TensorData{Name: "w", DType: F32, Shape: []int{2, 2}, Data: make([]byte, 12)}
	err := Write(&bytes.Buffer{}, []TensorData{bad}, nil)
	if !errors.Is(err, ErrDataSizeMismatch) {
		t.Fatalf("got %v, want ErrDataSizeMismatch", err)
	}
}

func TestWriteRejectsDuplicates(t *testing.T) {
	t.Parallel()

	a := TensorData{Name: "w", DType: U8, Shape: []int{1}, Data: []byte{1}}
	if err := Write(&bytes.Buffer{}, []TensorData{a, a}, nil); err == nil {
		t.Fatal("expected duplicate tensor error")
	}
}

func TestOpenNonexistentFile(t *testing.T) {
	t.Parallel()
	_, err := Open("/nonexistent/file.safetensors")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestOpenTruncatedFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "truncated.safetensors")
	if err := os.WriteFile(path, []byte{0, 0, 0, 0}, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := Open(path); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("got %v, want ErrCorruptFile", err)
	}
}

func TestOpenHeaderLengthPastEOF(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "short.safetensors")
	var buf [12]byte
	binary.LittleEndian.PutUint64(buf[:], 1000)
	if err := os.WriteFile(path, buf[:], 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("got %v, want ErrCorruptFile", err)
	}
}

func TestOpenInvalidJSON(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "invalid.safetensors")
	var buf bytes.Buffer
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], 12)
	buf.Write(lenBuf[:])
	buf.WriteString("not valid js")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for invalid JSON header")
	}
}

func TestInvalidDataOffsets(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	tests := map[string][]int64{
		"one_offset": {0},
		"reversed":   {8, 4},
		"past_end":   {0, 64},
	}
	for name, offsets := range tests {
		path := filepath.Join(dir, name+".safetensors")
		writeRaw(t, path, map[string]any{
			"bad": map[string]any{"dtype": "F32", "shape": []int{1}, "data_offsets": offsets},
		}, make([]byte, 8))
		if _, err := Open(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestTensorNotFound(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "test.safetensors")
	a, _ := FloatTensor("a", F32, []int{1}, []float32{1})
	if err := WriteFile(path, []TensorData{a}, nil); err != nil {
		t.Fatal(err)
	}

	f := openFile(t, path)
	if _, ok := f.Tensor("nonexistent"); ok {
		t.Fatal("expected tensor not found")
	}
	if _, _, err := f.ReadTensor("nonexistent"); !errors.Is(err, ErrTensorNotFound) {
		t.Fatalf("got %v, want ErrTensorNotFound", err)
	}
}

func TestReadTensorBF16(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bf16.safetensors")

	// BF16 keeps the top 16 bits of the float32 pattern.
	data := make([]byte, 4)
	binary.LittleEndian.PutUint16(data[0:], 0x3F80) // 1.0
	binary.LittleEndian.PutUint16(data[2:], 0x4000) // 2.0
	writeRaw(t, path, map[string]any{
		"test": map[string]any{"dtype": "BF16", "shape": []int{2}, "data_offsets": []int64{0, 4}},
	}, data)

	f := openFile(t, path)
	got, _, err := f.ReadTensorF32("test")
	if err != nil {
		t.Fatalf("ReadTensorF32: %v", err)
	}
	if diff := cmp.Diff([]float32{1, 2}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestReadTensorF16(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "f16.safetensors")

	data := make([]byte, 4)
	binary.LittleEndian.PutUint16(data[0:], 0x3C00) // 1.0
	binary.LittleEndian.PutUint16(data[2:], 0xC000) // -2.0
	writeRaw(t, path, map[string]any{
		"test": map[string]any{"dtype": "F16", "shape": []int{2}, "data_offsets": []int64{0, 4}},
	}, data)

	f := openFile(t, path)
	got, _, err := f.ReadTensorF32("test")
	if err != nil {
		t.Fatalf("ReadTensorF32: %v", err)
	}
	if diff := cmp.Diff([]float32{1, -2}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestReadTensorUnsupportedDType(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "unsupported.safetensors")
	writeRaw(t, path, map[string]any{
		"test": map[string]any{"dtype": "I32", "shape": []int{2}, "data_offsets": []int64{0, 8}},
	}, make([]byte, 8))

	f := openFile(t, path)
	if _, _, err := f.ReadTensorF32("test"); !errors.Is(err, ErrUnsupportedDType) {
		t.Fatalf("got %v, want ErrUnsupportedDType", err)
	}
}

func TestReadTensorSizeMismatch(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "mismatch.safetensors")
	// Shape says 4 elements but only 8 bytes (2 F32 elements) are declared.
	writeRaw(t, path, map[string]any{
		"test": map[string]any{"dtype": "F32", "shape": []int{4}, "data_offsets": []int64{0, 8}},
	}, make([]byte, 8))

	f := openFile(t, path)
	if _, _, err := f.ReadTensorF32("test"); !errors.Is(err, ErrDataSizeMismatch) {
		t.Fatalf("got %v, want ErrDataSizeMismatch", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	vals := []float32{0, 1, -1.5, 0.25, 1024}
	for _, d := range []DType{F32, F64, F16, BF16} {
		raw, err := EncodeFloat32(d, vals)
		if err != nil {
			t.Fatalf("%s encode: %v", d, err)
		}
		got, err := DecodeFloat32(d, raw, len(vals))
		if err != nil {
			t.Fatalf("%s decode: %v", d, err)
		}
		if diff := cmp.Diff(vals, got); diff != "" {
			t.Fatalf("%s round trip (-want +got):\n%s", d, diff)
		}
	}
}

func TestEncodeIntCodes(t *testing.T) {
	t.Parallel()

	raw, err := EncodeInt8([]float64{-7, 0, 7})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, []byte{0xF9, 0, 7}) {
		t.Fatalf("I8 = %x", raw)
	}
	if _, err := EncodeInt8([]float64{128}); err == nil {
		t.Fatal("expected overflow error")
	}
	if _, err := EncodeUint8([]float64{-1}); err == nil {
		t.Fatal("expected negative error")
	}
	if _, err := EncodeUint8([]float64{1.5}); err == nil {
		t.Fatal("expected fractional error")
	}

	raw, err = EncodeInt16([]int{-150, 0, 300})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, []byte{0x6A, 0xFF, 0, 0, 0x2C, 0x01}) {
		t.Fatalf("I16 = %x", raw)
	}
	if I16.Size() != 2 {
		t.Fatalf("I16 size = %d", I16.Size())
	}
	if _, err := EncodeInt16([]int{1 << 15}); err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestParseCast(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]DType{"": "", "keep": "", "f16": F16, "bf16": BF16, "F32": F32} {
		got, err := ParseCast(in)
		if err != nil || got != want {
			t.Fatalf("ParseCast(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseCast("int4"); !errors.Is(err, ErrUnsupportedDType) {
		t.Fatalf("got %v", err)
	}
}
