package quant

import "math"

// Scale bounds. The floor keeps an all-zero group from dividing by zero;
// the ceiling keeps a pathological range from producing an unusable step.
const (
	ScaleMin = 1e-5
	ScaleMax = 1e4
)

// Calibration holds per-group quantization parameters.
type Calibration struct {
	Scales     []float64
	ZeroPoints []float64 // asymmetric integer only
}

func clampScale(s float64) float64 {
	if math.IsNaN(s) {
		return ScaleMin
	}
	return min(max(s, ScaleMin), ScaleMax)
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

func absMax(group []float64) float64 {
	var m float64
	for _, v := range group {
		m = max(m, math.Abs(v))
	}
	return m
}

func minMax(group []float64) (float64, float64) {
	lo, hi := group[0], group[0]
	for _, v := range group[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// SymmetricScale is clamp(max|group| / qmax).
func SymmetricScale(group []float64, qmax float64) float64 {
	return clampScale(absMax(group) / qmax)
}

// AsymmetricScale returns the scale and zero point covering [min, max] with
// codes in [qmin, qmax].
func AsymmetricScale(group []float64, qmin, qmax float64) (scale, zeroPoint float64) {
	lo, hi := minMax(group)
	scale = clampScale((hi - lo) / (qmax - qmin))
	zeroPoint = clamp(math.RoundToEven(-lo/scale), qmin, qmax)
	if math.IsNaN(zeroPoint) {
		zeroPoint = qmin
	}
	return scale, zeroPoint
}

// CalibrateSymmetric computes one scale per group.
func CalibrateSymmetric(g Grouped, qmax float64) Calibration {
	n := g.Layout.NumGroups()
	cal := Calibration{Scales: make([]float64, n)}
	for i := range n {
		cal.Scales[i] = SymmetricScale(g.At(i), qmax)
	}
	return cal
}

// CalibrateAsymmetric computes one scale and zero point per group.
func CalibrateAsymmetric(g Grouped, qmin, qmax float64) Calibration {
	n := g.Layout.NumGroups()
	cal := Calibration{
		Scales:     make([]float64, n),
		ZeroPoints: make([]float64, n),
	}
	for i := range n {
		cal.Scales[i], cal.ZeroPoints[i] = AsymmetricScale(g.At(i), qmin, qmax)
	}
	return cal
}
