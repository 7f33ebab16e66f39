package analysis

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/samcharles93/quantsim/pkg/quant"
)

// GroupStats summarises the per-group error distribution: the MSE of every
// calibration group, their mean (the representative MSE) and the 99th
// percentile.
type GroupStats struct {
	PerGroup []float64 `json:"per_group,omitempty"`
	Rep      float64   `json:"mse_rep"`
	P99      float64   `json:"mse_p99"`
}

// GroupErrors splits orig and recon with the same grouping the quantizer used
// and measures each group independently.
func GroupErrors(orig, recon quant.Matrix, g quant.Grouping) (GroupStats, error) {
	if orig.Rows != recon.Rows || orig.Cols != recon.Cols {
		return GroupStats{}, fmt.Errorf("%w: (%d, %d) vs (%d, %d)",
			ErrLengthMismatch, orig.Rows, orig.Cols, recon.Rows, recon.Cols)
	}
	a, err := quant.Group(orig, g)
	if err != nil {
		return GroupStats{}, err
	}
	b, err := quant.Group(recon, g)
	if err != nil {
		return GroupStats{}, err
	}
	n := a.Layout.NumGroups()
	per := make([]float64, n)
	for i := range n {
		per[i] = MSE(a.At(i), b.At(i))
	}
	return Summarise(per), nil
}

// Summarise computes the representative mean and P99 of per-group errors.
func Summarise(per []float64) GroupStats {
	if len(per) == 0 {
		return GroupStats{}
	}
	sorted := slices.Clone(per)
	slices.Sort(sorted)
	return GroupStats{
		PerGroup: per,
		Rep:      stat.Mean(per, nil),
		P99:      stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
}
