package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/samcharles93/quantsim/pkg/quant"
)

var ErrUnknownEncoding = errors.New("export: unknown sidecar encoding")

// Encoding is the sidecar serialization.
type Encoding string

const (
	EncodingJSON       Encoding = "json"
	EncodingMsgpack    Encoding = "msgpack"
	EncodingMsgpackLZ4 Encoding = "msgpack.lz4"
)

// EncodingFromPath picks the encoding from a file name suffix.
func EncodingFromPath(path string) (Encoding, error) {
	switch {
	case strings.HasSuffix(path, ".msgpack.lz4"), strings.HasSuffix(path, ".mpk.lz4"):
		return EncodingMsgpackLZ4, nil
	case strings.HasSuffix(path, ".msgpack"), strings.HasSuffix(path, ".mpk"):
		return EncodingMsgpack, nil
	case strings.HasSuffix(path, ".json"):
		return EncodingJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownEncoding, path)
	}
}

// ParseEncoding validates a configured encoding name.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(s); e {
	case EncodingJSON, EncodingMsgpack, EncodingMsgpackLZ4:
		return e, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
	}
}

// Meta records how every tensor of a run was quantized.
type Meta struct {
	RunID     string       `json:"run_id" msgpack:"id"`
	CreatedAt time.Time    `json:"created_at" msgpack:"t"`
	Datatype  string       `json:"datatype" msgpack:"dt"`
	Bits      int          `json:"bits" msgpack:"b"`
	GroupSize int          `json:"group_size" msgpack:"gs"`
	Tensors   []TensorMeta `json:"tensors" msgpack:"ts"`
}

type TensorMeta struct {
	Name       string    `json:"name" msgpack:"n"`
	Rows       int       `json:"rows" msgpack:"r"`
	Cols       int       `json:"cols" msgpack:"c"`
	Grouping   string    `json:"grouping" msgpack:"g"`
	Groups     int       `json:"groups" msgpack:"ng"`
	Scales     []float64 `json:"scales" msgpack:"s"`
	ZeroPoints []float64 `json:"zero_points,omitempty" msgpack:"zp,omitempty"`
	Exponents  []int     `json:"exponents,omitempty" msgpack:"e,omitempty"`
	Choices    []string  `json:"choices,omitempty" msgpack:"ch,omitempty"`
	MSE        float64   `json:"mse" msgpack:"mse"`
}

// TensorMetaFrom summarises one result.
func TensorMetaFrom(name string, res *quant.Result, mse float64) TensorMeta {
	return TensorMeta{
		Name:       name,
		Rows:       res.Dequantized.Rows,
		Cols:       res.Dequantized.Cols,
		Grouping:   res.Grouping.String(),
		Groups:     res.Layout.NumGroups(),
		Scales:     res.Scales,
		ZeroPoints: res.ZeroPoints,
		Exponents:  res.Exponents,
		Choices:    res.ChoiceNames(),
		MSE:        mse,
	}
}

// Sort orders tensors by name for stable output.
func (m *Meta) Sort() {
	sort.Slice(m.Tensors, func(i, j int) bool { return m.Tensors[i].Name < m.Tensors[j].Name })
}

// Encode writes m to w.
func Encode(w io.Writer, m *Meta, enc Encoding) error {
	switch enc {
	case EncodingJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(m)
	case EncodingMsgpack:
		return msgpack.NewEncoder(w).Encode(m)
	case EncodingMsgpackLZ4:
		zw := lz4.NewWriter(w)
		if err := msgpack.NewEncoder(zw).Encode(m); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}
}

// Decode reads a sidecar written by Encode.
func Decode(r io.Reader, enc Encoding) (*Meta, error) {
	var m Meta
	var err error
	switch enc {
	case EncodingJSON:
		err = json.NewDecoder(r).Decode(&m)
	case EncodingMsgpack:
		err = msgpack.NewDecoder(r).Decode(&m)
	case EncodingMsgpackLZ4:
		err = msgpack.NewDecoder(lz4.NewReader(r)).Decode(&m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s sidecar: %w", enc, err)
	}
	return &m, nil
}

// WriteMeta writes the sidecar, choosing the encoding from the file name.
func WriteMeta(path string, m *Meta) error {
	enc, err := EncodingFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, m, enc); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ReadMeta loads a sidecar written by WriteMeta.
func ReadMeta(path string) (*Meta, error) {
	enc, err := EncodingFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f, enc)
}
