// Package export turns quantization results into artifacts: auxiliary
// tensors stored next to each quantized weight and a calibration sidecar.
package export

import (
	"fmt"

	"github.com/samcharles93/quantsim/internal/safetensors"
	"github.com/samcharles93/quantsim/pkg/quant"
)

// Auxiliary tensor suffixes appended to the weight name.
const (
	SuffixCodes     = "_q"
	SuffixScale     = "_scale"
	SuffixZeroPoint = "_zp"
	SuffixExponent  = "_exp"
	SuffixChoice    = "_choice"
)

// groupShape is the shape of a per-group metadata tensor: scalar for
// per-tensor, [K] for per-channel and [K, G] for per-group.
func groupShape(res *quant.Result) []int {
	switch res.Grouping.Mode {
	case quant.PerTensor:
		return []int{}
	case quant.PerChannel:
		return []int{res.Layout.Rows}
	default:
		return []int{res.Layout.Rows, res.Layout.Groups}
	}
}

// wideCodes reports whether catalog codes overflow F16. fp8_e5m2 reaches
// 114688, past the F16 maximum of 65504.
func wideCodes(f quant.Format) bool {
	var c *quant.Catalog
	switch f.Kind {
	case quant.KindFloat, quant.KindMX:
		c = f.Catalog
	case quant.KindMixed:
		for _, cand := range f.Candidates {
			if c == nil || cand.MaxAbs() > c.MaxAbs() {
				c = cand
			}
		}
	}
	return c != nil && c.MaxAbs() > 65504
}

func float32s(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// AuxTensors builds the tensors that describe how weight was quantized:
//
//	<weight>_q       codes, I8 (symmetric INT), U8 (asymmetric INT), F16 otherwise
//	<weight>_scale   per-group scale
//	<weight>_zp      per-group zero point, asymmetric INT only
//	<weight>_exp     per-group shared exponent, I16, MX only
//	<weight>_choice  per-group candidate index, mixed only
//
// Identity results produce nothing.
func AuxTensors(weight string, shape []int, res *quant.Result) ([]safetensors.TensorData, error) {
	f := res.Format
	if f.Kind == quant.KindIdentity {
		return nil, nil
	}

	floatType := safetensors.F16
	if wideCodes(f) {
		floatType = safetensors.F32
	}

	var out []safetensors.TensorData
	var codes safetensors.TensorData
	var err error
	switch {
	case f.Kind == quant.KindInt && f.Asymmetric:
		codes = safetensors.TensorData{Name: weight + SuffixCodes, DType: safetensors.U8, Shape: shape}
		codes.Data, err = safetensors.EncodeUint8(res.Codes)
	case f.Kind == quant.KindInt:
		codes = safetensors.TensorData{Name: weight + SuffixCodes, DType: safetensors.I8, Shape: shape}
		codes.Data, err = safetensors.EncodeInt8(res.Codes)
	default:
		codes, err = safetensors.FloatTensor(weight+SuffixCodes, floatType, shape, float32s(res.Codes))
	}
	if err != nil {
		return nil, fmt.Errorf("%s codes: %w", weight, err)
	}
	out = append(out, codes)

	gshape := groupShape(res)
	scale, err := safetensors.FloatTensor(weight+SuffixScale, floatType, gshape, float32s(res.Scales))
	if err != nil {
		return nil, err
	}
	out = append(out, scale)

	if res.ZeroPoints != nil {
		zp := safetensors.TensorData{Name: weight + SuffixZeroPoint, DType: safetensors.U8, Shape: gshape}
		if zp.Data, err = safetensors.EncodeUint8(res.ZeroPoints); err != nil {
			return nil, fmt.Errorf("%s zero points: %w", weight, err)
		}
		out = append(out, zp)
	}
	if res.Exponents != nil {
		// Subnormal groups reach exponents below -128.
		exp := safetensors.TensorData{Name: weight + SuffixExponent, DType: safetensors.I16, Shape: gshape}
		if exp.Data, err = safetensors.EncodeInt16(res.Exponents); err != nil {
			return nil, fmt.Errorf("%s exponents: %w", weight, err)
		}
		out = append(out, exp)
	}
	if res.Choices != nil {
		choices := make([]float64, len(res.Choices))
		for i, c := range res.Choices {
			choices[i] = float64(c)
		}
		ch := safetensors.TensorData{Name: weight + SuffixChoice, DType: safetensors.U8, Shape: gshape}
		if ch.Data, err = safetensors.EncodeUint8(choices); err != nil {
			return nil, fmt.Errorf("%s choices: %w", weight, err)
		}
		out = append(out, ch)
	}
	return out, nil
}
