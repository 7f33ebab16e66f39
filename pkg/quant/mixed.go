package quant

import "math"

// Selection is the outcome of the per-group datatype search.
type Selection struct {
	Choice int     // index into the candidate list
	Scale  float64 // scale calibrated for the chosen candidate
	MSE    float64 // reconstruction error of the chosen candidate
}

// groupMSE quantizes group against c with a group-local scale and returns
// the scale and mean squared reconstruction error. codes receives the
// selected catalog values.
func groupMSE(group, codes []float64, c *Catalog) (float64, float64) {
	scale := SymmetricScale(group, c.MaxAbs())
	var sum float64
	for j, v := range group {
		q := c.Nearest(v / scale)
		codes[j] = q
		d := q*scale - v
		sum += d * d
	}
	return scale, sum / float64(len(group))
}

// selectGroup evaluates every candidate on group and keeps the one with the
// lowest MSE. Only a strictly lower error replaces the current best, so ties
// go to the earlier candidate. On return group holds the de-quantized values
// of the winner and codes its catalog values. scratch must be len(group).
func selectGroup(group, codes, scratch []float64, candidates []*Catalog) Selection {
	best := Selection{Choice: -1, MSE: math.Inf(1)}
	for ci, c := range candidates {
		scale, mse := groupMSE(group, scratch, c)
		if best.Choice < 0 || mse < best.MSE {
			best = Selection{Choice: ci, Scale: scale, MSE: mse}
			copy(codes, scratch)
		}
	}
	for j := range group {
		group[j] = codes[j] * best.Scale
	}
	return best
}

// SelectDatatype runs the mixed search on a single group without modifying
// it and returns the selection and per-candidate errors.
func SelectDatatype(group []float64, candidates []*Catalog) (Selection, []float64) {
	errs := make([]float64, len(candidates))
	scratch := make([]float64, len(group))
	for ci, c := range candidates {
		_, errs[ci] = groupMSE(group, scratch, c)
	}
	work := append([]float64(nil), group...)
	codes := make([]float64, len(group))
	sel := selectGroup(work, codes, scratch, candidates)
	return sel, errs
}
