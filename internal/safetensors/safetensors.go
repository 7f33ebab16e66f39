package safetensors

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"

	"github.com/goccy/go-json"
	"golang.org/x/sys/unix"
)

const metadataKey = "__metadata__"

// maxHeaderSize bounds the JSON header so a corrupt length prefix cannot
// trigger a huge allocation.
const maxHeaderSize = 100 << 20

type TensorInfo struct {
	DType DType
	Shape []int
	Start int64
	End   int64
}

// NumElements is the product of the shape.
func (t TensorInfo) NumElements() int {
	n, _ := numElements(t.Shape)
	return n
}

// File is an opened safetensors container. Tensor bytes returned by
// ReadTensor alias the underlying mapping and stay valid until Close.
type File struct {
	Path      string
	DataStart int64
	Tensors   map[string]TensorInfo
	Metadata  map[string]string

	data    []byte
	mmapped bool
}

type tensorHeader struct {
	DType       DType   `json:"dtype"`
	Shape       []int   `json:"shape"`
	DataOffsets []int64 `json:"data_offsets"`
}

// Open maps a safetensors file read-only and parses its header. If mmap is
// unavailable it falls back to reading the whole file.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < 8 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrCorruptFile, path, size64)
	}
	size := int(size64)

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		sf, parseErr := parse(path, data)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		sf.mmapped = true
		return sf, nil
	}

	data = make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parse(path, data)
}

// Parse reads a container held in memory.
func Parse(data []byte) (*File, error) {
	return parse("", data)
}

func parse(path string, data []byte) (*File, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: missing header length", ErrCorruptFile)
	}
	headerLen := binary.LittleEndian.Uint64(data[:8])
	if headerLen > maxHeaderSize || headerLen > uint64(len(data)-8) {
		return nil, fmt.Errorf("%w: header length %d", ErrCorruptFile, headerLen)
	}
	headerBytes := data[8 : 8+headerLen]

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerBytes, &raw); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorruptFile, err)
	}

	var meta map[string]string
	if msg, ok := raw[metadataKey]; ok {
		if err := json.Unmarshal(msg, &meta); err != nil {
			return nil, fmt.Errorf("%w: metadata: %v", ErrCorruptFile, err)
		}
		delete(raw, metadataKey)
	}

	dataStart := int64(8 + headerLen)
	payload := int64(len(data)) - dataStart
	tensors := make(map[string]TensorInfo, len(raw))
	for name, msg := range raw {
		var th tensorHeader
		if err := json.Unmarshal(msg, &th); err != nil {
			return nil, fmt.Errorf("parse tensor %s: %w", name, err)
		}
		if len(th.DataOffsets) != 2 {
			return nil, fmt.Errorf("tensor %s: invalid data_offsets", name)
		}
		start, end := th.DataOffsets[0], th.DataOffsets[1]
		if start < 0 || end < start || end > payload {
			return nil, fmt.Errorf("%w: tensor %s offsets [%d, %d) outside %d data bytes",
				ErrCorruptFile, name, start, end, payload)
		}
		tensors[name] = TensorInfo{
			DType: th.DType,
			Shape: th.Shape,
			Start: start,
			End:   end,
		}
	}
	return &File{
		Path:      path,
		DataStart: dataStart,
		Tensors:   tensors,
		Metadata:  meta,
		data:      data,
	}, nil
}

// Close releases the mapping, if any.
func (f *File) Close() error {
	if f == nil || f.data == nil {
		return nil
	}
	data := f.data
	f.data = nil
	if f.mmapped {
		return unix.Munmap(data)
	}
	return nil
}

// Names returns the tensor names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Tensors))
	for name := range f.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *File) Tensor(name string) (TensorInfo, bool) {
	t, ok := f.Tensors[name]
	return t, ok
}

// ReadTensor returns the raw bytes of a tensor without copying.
func (f *File) ReadTensor(name string) ([]byte, TensorInfo, error) {
	t, ok := f.Tensors[name]
	if !ok {
		return nil, TensorInfo{}, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	if f.data == nil {
		return nil, TensorInfo{}, fmt.Errorf("read tensor %s: file closed", name)
	}
	off := f.DataStart + t.Start
	return f.data[off : off+(t.End-t.Start)], t, nil
}

// ReadTensorF32 decodes a float tensor into a new float32 slice.
func (f *File) ReadTensorF32(name string) ([]float32, TensorInfo, error) {
	raw, info, err := f.ReadTensor(name)
	if err != nil {
		return nil, TensorInfo{}, err
	}
	n, err := numElements(info.Shape)
	if err != nil {
		return nil, TensorInfo{}, fmt.Errorf("tensor %s: %w", name, err)
	}
	if !info.DType.Float() {
		return nil, TensorInfo{}, fmt.Errorf("tensor %s: %w: %s", name, ErrUnsupportedDType, info.DType)
	}
	out, err := DecodeFloat32(info.DType, raw, n)
	if err != nil {
		return nil, TensorInfo{}, fmt.Errorf("tensor %s: %w", name, err)
	}
	return out, info, nil
}

// TensorData returns a tensor as an owned record ready to be written out.
func (f *File) TensorData(name string) (TensorData, error) {
	raw, info, err := f.ReadTensor(name)
	if err != nil {
		return TensorData{}, err
	}
	return TensorData{
		Name:  name,
		DType: info.DType,
		Shape: slices.Clone(info.Shape),
		Data:  slices.Clone(raw),
	}, nil
}

func numElements(shape []int) (int, error) {
	if len(shape) == 0 {
		// Scalars have an empty shape and one element.
		return 1, nil
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("invalid dim %d", d)
		}
		if d > 0 && n > (int(^uint(0)>>1))/d {
			return 0, fmt.Errorf("tensor too large")
		}
		n *= d
	}
	return n, nil
}
