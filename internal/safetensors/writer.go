package safetensors

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"
)

// TensorData is one tensor to be written.
type TensorData struct {
	Name  string
	DType DType
	Shape []int
	Data  []byte
}

// WriteFile writes tensors to path. The file is written to a temporary
// sibling first and renamed into place, so a failed write leaves no partial
// output behind.
func WriteFile(path string, tensors []TensorData, metadata map[string]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	bw := bufio.NewWriterSize(tmp, 1<<20)
	if err := Write(bw, tensors, metadata); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return os.Rename(tmpName, path)
}

// Write encodes tensors in name order. The header is padded with spaces to an
// 8-byte boundary so tensor data stays aligned.
func Write(w io.Writer, tensors []TensorData, metadata map[string]string) error {
	sorted := slices.Clone(tensors)
	slices.SortFunc(sorted, func(a, b TensorData) int { return strings.Compare(a.Name, b.Name) })

	header := make(map[string]any, len(sorted)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}
	var offset int64
	for i, t := range sorted {
		if i > 0 && sorted[i-1].Name == t.Name {
			return fmt.Errorf("safetensors: duplicate tensor %s", t.Name)
		}
		if t.DType.Size() == 0 {
			return fmt.Errorf("tensor %s: %w: %s", t.Name, ErrUnsupportedDType, t.DType)
		}
		n, err := numElements(t.Shape)
		if err != nil {
			return fmt.Errorf("tensor %s: %w", t.Name, err)
		}
		if want := n * t.DType.Size(); len(t.Data) != want {
			return fmt.Errorf("tensor %s: %w: expected %d bytes, got %d",
				t.Name, ErrDataSizeMismatch, want, len(t.Data))
		}
		shape := t.Shape
		if shape == nil {
			shape = []int{}
		}
		header[t.Name] = tensorHeader{
			DType:       t.DType,
			Shape:       shape,
			DataOffsets: []int64{offset, offset + int64(len(t.Data))},
		}
		offset += int64(len(t.Data))
	}

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if pad := len(headerBytes) % 8; pad != 0 {
		headerBytes = append(headerBytes, bytes.Repeat([]byte{' '}, 8-pad)...)
	}

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(headerBytes)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write header size: %w", err)
	}
	if _, err := w.Write(headerBytes); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range sorted {
		if _, err := w.Write(t.Data); err != nil {
			return fmt.Errorf("write tensor %s: %w", t.Name, err)
		}
	}
	return nil
}

// FloatTensor encodes float32 values as a tensor of the given float dtype.
func FloatTensor(name string, d DType, shape []int, vals []float32) (TensorData, error) {
	data, err := EncodeFloat32(d, vals)
	if err != nil {
		return TensorData{}, fmt.Errorf("tensor %s: %w", name, err)
	}
	return TensorData{Name: name, DType: d, Shape: shape, Data: data}, nil
}
