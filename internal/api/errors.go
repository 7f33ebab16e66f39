package api

import (
	"errors"

	"github.com/samcharles93/quantsim/pkg/quant"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// isClientError reports errors caused by the request rather than the server.
func isClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidRequest,
		quant.ErrUnknownDatatype,
		quant.ErrUnsupportedBitWidth,
		quant.ErrGroupSizeMismatch,
		quant.ErrShapeMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
