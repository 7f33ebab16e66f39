package safetensors

import "errors"

var (
	ErrCorruptFile      = errors.New("safetensors: corrupt file")
	ErrTensorNotFound   = errors.New("safetensors: tensor not found")
	ErrUnsupportedDType = errors.New("safetensors: unsupported dtype")
	ErrDataSizeMismatch = errors.New("safetensors: data size does not match shape")
)
