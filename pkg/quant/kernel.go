package quant

import "math"

// The kernels below work on one group in place: group holds the input on
// entry and the de-quantized values on return, codes receives the quantized
// code per element.

// quantizeIntGroup applies uniform integer quantization with
// round-half-to-even.
func quantizeIntGroup(group, codes []float64, scale, zeroPoint, qmin, qmax float64, asym bool) {
	for j, v := range group {
		q := math.RoundToEven(v / scale)
		if asym {
			q += zeroPoint
		}
		q = clamp(q, qmin, qmax)
		codes[j] = q
		if asym {
			group[j] = (q - zeroPoint) * scale
		} else {
			group[j] = q * scale
		}
	}
}

// quantizeCatalogGroup snaps every scaled value to its catalog bucket.
func quantizeCatalogGroup(group, codes []float64, c *Catalog, scale float64) {
	for j, v := range group {
		q := c.Nearest(v / scale)
		codes[j] = q
		group[j] = q * scale
	}
}

// SharedExponent is floor(log2(max|group|)), or 0 for an all-zero group.
func SharedExponent(group []float64) int {
	m := absMax(group)
	if m == 0 || math.IsInf(m, 0) || math.IsNaN(m) {
		return 0
	}
	return int(math.Floor(math.Log2(m)))
}

// mxScale is the fixed linear step of an MX element: the catalog is
// stretched so that its largest magnitude spans two binades.
func mxScale(c *Catalog) float64 {
	return 2 / c.MaxAbs()
}

// quantizeMXGroup divides the group by its shared power of two, buckets the
// result against the catalog and scales back.
func quantizeMXGroup(group, codes []float64, c *Catalog, exp int) {
	scale := mxScale(c)
	for j, v := range group {
		q := c.Nearest(math.Ldexp(v, -exp) / scale)
		codes[j] = q
		group[j] = math.Ldexp(q*scale, exp)
	}
}
