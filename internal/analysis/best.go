package analysis

import (
	"fmt"
	"strconv"
	"strings"
)

// BestFormats is the per-element winner among several reconstructions.
type BestFormats struct {
	Labels    []string `json:"labels"`
	Threshold float64  `json:"threshold"`
	// Outliers are elements whose smallest error still exceeds Threshold.
	Outliers []int `json:"outliers"`
	// Best[i] lists the elements where Labels[i] had the lowest error.
	Best [][]int `json:"best"`
}

// SelectBest compares every reconstruction against orig element by element.
// Ties go to the earlier label.
func SelectBest(orig []float64, labels []string, recons [][]float64, threshold float64) (BestFormats, error) {
	if len(labels) != len(recons) {
		return BestFormats{}, fmt.Errorf("%w: %d labels for %d reconstructions", ErrLengthMismatch, len(labels), len(recons))
	}
	if len(recons) == 0 {
		return BestFormats{}, ErrEmpty
	}
	errs := make([][]float64, len(recons))
	for i, r := range recons {
		e, err := AbsError(orig, r)
		if err != nil {
			return BestFormats{}, fmt.Errorf("%s: %w", labels[i], err)
		}
		errs[i] = e
	}

	out := BestFormats{
		Labels:    labels,
		Threshold: threshold,
		Best:      make([][]int, len(labels)),
	}
	for j := range orig {
		best := 0
		for i := 1; i < len(errs); i++ {
			if errs[i][j] < errs[best][j] {
				best = i
			}
		}
		if errs[best][j] > threshold {
			out.Outliers = append(out.Outliers, j)
			continue
		}
		out.Best[best] = append(out.Best[best], j)
	}
	return out, nil
}

// CompressRanges renders ascending indices as "0-3, 7, 9-12".
func CompressRanges(idxs []int) string {
	if len(idxs) == 0 {
		return ""
	}
	var sb strings.Builder
	flush := func(start, prev int) {
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(start))
		if start != prev {
			sb.WriteByte('-')
			sb.WriteString(strconv.Itoa(prev))
		}
	}
	start, prev := idxs[0], idxs[0]
	for _, x := range idxs[1:] {
		if x == prev+1 {
			prev = x
			continue
		}
		flush(start, prev)
		start, prev = x, x
	}
	flush(start, prev)
	return sb.String()
}
