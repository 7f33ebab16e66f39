package safetensors

import (
	"encoding/binary"
	"fmt"
	"math"

	bfloat16 "github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// DType is a safetensors element type tag.
type DType string

const (
	F64  DType = "F64"
	F32  DType = "F32"
	F16  DType = "F16"
	BF16 DType = "BF16"
	I8   DType = "I8"
	U8   DType = "U8"
	I16  DType = "I16"
	I32  DType = "I32"
)

// Size returns the element width in bytes, or 0 for an unknown tag.
func (d DType) Size() int {
	switch d {
	case F64:
		return 8
	case F32, I32:
		return 4
	case F16, BF16, I16:
		return 2
	case I8, U8:
		return 1
	default:
		return 0
	}
}

// Float reports whether the tag is a floating-point type we can decode.
func (d DType) Float() bool {
	switch d {
	case F64, F32, F16, BF16:
		return true
	}
	return false
}

// ParseCast maps a CLI cast name to a dtype. "keep" and "" return "".
func ParseCast(s string) (DType, error) {
	switch s {
	case "", "keep":
		return "", nil
	case "f32", "F32":
		return F32, nil
	case "f16", "F16":
		return F16, nil
	case "bf16", "BF16":
		return BF16, nil
	default:
		return "", fmt.Errorf("%w: cast %q", ErrUnsupportedDType, s)
	}
}

// DecodeFloat32 converts n little-endian elements of a float dtype.
func DecodeFloat32(d DType, raw []byte, n int) ([]float32, error) {
	if len(raw) != n*d.Size() || d.Size() == 0 {
		return nil, fmt.Errorf("%w: %s needs %d bytes for %d elements, have %d",
			ErrDataSizeMismatch, d, n*d.Size(), n, len(raw))
	}
	switch d {
	case F32:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		return out, nil
	case F64:
		out := make([]float32, n)
		for i := range out {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:])))
		}
		return out, nil
	case F16:
		out := make([]float32, n)
		for i := range out {
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(raw[i*2:])).Float32()
		}
		return out, nil
	case BF16:
		return bfloat16.DecodeFloat32(raw), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, d)
	}
}

// EncodeFloat32 stores values as little-endian elements of a float dtype.
func EncodeFloat32(d DType, vals []float32) ([]byte, error) {
	switch d {
	case F32:
		out := make([]byte, len(vals)*4)
		for i, v := range vals {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
		}
		return out, nil
	case F64:
		out := make([]byte, len(vals)*8)
		for i, v := range vals {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(float64(v)))
		}
		return out, nil
	case F16:
		out := make([]byte, len(vals)*2)
		for i, v := range vals {
			binary.LittleEndian.PutUint16(out[i*2:], float16.Fromfloat32(v).Bits())
		}
		return out, nil
	case BF16:
		return bfloat16.EncodeFloat32(vals), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, d)
	}
}

// EncodeInt8 stores integral codes in [-128, 127] as I8.
func EncodeInt8(codes []float64) ([]byte, error) {
	out := make([]byte, len(codes))
	for i, c := range codes {
		if c < math.MinInt8 || c > math.MaxInt8 || c != math.Trunc(c) {
			return nil, fmt.Errorf("safetensors: code %v at %d does not fit I8", c, i)
		}
		out[i] = byte(int8(c))
	}
	return out, nil
}

// EncodeInt16 stores little-endian I16 values.
func EncodeInt16(vals []int) ([]byte, error) {
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		if v < math.MinInt16 || v > math.MaxInt16 {
			return nil, fmt.Errorf("safetensors: value %d at %d does not fit I16", v, i)
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v)))
	}
	return out, nil
}

// EncodeUint8 stores integral codes in [0, 255] as U8.
func EncodeUint8(codes []float64) ([]byte, error) {
	out := make([]byte, len(codes))
	for i, c := range codes {
		if c < 0 || c > math.MaxUint8 || c != math.Trunc(c) {
			return nil, fmt.Errorf("safetensors: code %v at %d does not fit U8", c, i)
		}
		out[i] = byte(c)
	}
	return out, nil
}
