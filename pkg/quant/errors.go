package quant

import "errors"

var (
	ErrUnknownDatatype     = errors.New("quant: unknown datatype")
	ErrUnsupportedBitWidth = errors.New("quant: unsupported bit width")
	ErrGroupSizeMismatch   = errors.New("quant: input channels not divisible by group size")
	ErrShapeMismatch       = errors.New("quant: matrix data does not match shape")
)
