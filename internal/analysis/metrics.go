// Package analysis measures reconstruction error between an original weight
// matrix and its quantize-dequantize counterpart.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrLengthMismatch = errors.New("analysis: length mismatch")
	ErrEmpty          = errors.New("analysis: empty input")
)

// Metrics are whole-tensor error statistics.
type Metrics struct {
	MSE              float64 `json:"mse"`
	RMSE             float64 `json:"rmse"`
	MAE              float64 `json:"mae"`
	MaxError         float64 `json:"max_error"`
	SNR              float64 `json:"snr_db"`
	CosineSimilarity float64 `json:"cosine"`
}

func checkPair(a, b []float64) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return ErrEmpty
	}
	return nil
}

// MSE is the mean squared difference of two equal-length slices. It returns
// 0 for empty input.
func MSE(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	var sum float64
	for i, v := range a {
		d := v - b[i]
		sum += d * d
	}
	return sum / float64(len(a))
}

// AbsError returns |a[i] - b[i]| for every element.
func AbsError(a, b []float64) ([]float64, error) {
	if err := checkPair(a, b); err != nil {
		return nil, err
	}
	out := make([]float64, len(a))
	floats.SubTo(out, a, b)
	for i, v := range out {
		out[i] = math.Abs(v)
	}
	return out, nil
}

// Compare computes Metrics for a reconstruction of orig. SNR is the signal
// variance over the MSE in dB, +Inf for an exact reconstruction.
func Compare(orig, recon []float64) (Metrics, error) {
	abs, err := AbsError(orig, recon)
	if err != nil {
		return Metrics{}, err
	}
	n := float64(len(abs))
	mse := floats.Dot(abs, abs) / n
	m := Metrics{
		MSE:      mse,
		RMSE:     math.Sqrt(mse),
		MAE:      floats.Sum(abs) / n,
		MaxError: floats.Max(abs),
	}

	_, signal := stat.PopMeanVariance(orig, nil)
	switch {
	case mse == 0:
		m.SNR = math.Inf(1)
	case signal == 0:
		m.SNR = math.Inf(-1)
	default:
		m.SNR = 10 * math.Log10(signal/mse)
	}

	no, nr := floats.Norm(orig, 2), floats.Norm(recon, 2)
	if no > 0 && nr > 0 {
		m.CosineSimilarity = floats.Dot(orig, recon) / (no * nr)
	}
	return m, nil
}
