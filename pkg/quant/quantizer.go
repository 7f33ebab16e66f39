package quant

import (
	"fmt"
	"slices"
)

// Result is the output of one quantize-dequantize call. Codes has the same
// flat layout as Dequantized. Per-group slices are indexed by group in
// row-major (row, group) order.
type Result struct {
	Format      Format
	Grouping    Grouping
	Layout      Layout
	Dequantized Matrix

	// Codes holds integer codes (INT, as float64) or selected catalog values
	// (FP, MX, mixed). Nil for identity formats.
	Codes []float64

	Scales     []float64
	ZeroPoints []float64 // asymmetric INT only
	Exponents  []int     // MX only
	Choices    []int     // mixed only: index into Format.Candidates
	GroupMSE   []float64 // mixed only: error of the chosen candidate
}

// ChoiceNames maps Choices to candidate catalog names.
func (r *Result) ChoiceNames() []string {
	if r.Choices == nil {
		return nil
	}
	names := make([]string, len(r.Choices))
	for i, c := range r.Choices {
		names[i] = r.Format.Candidates[c].Name()
	}
	return names
}

// Quantizer is a resolved (format, grouping) pair. Resolution happens once in
// NewQuantizer so the per-matrix path never re-parses datatype names.
type Quantizer struct {
	format   Format
	grouping Grouping
}

// NewQuantizer resolves a datatype name, bit width and group size.
// Group size follows the external convention of GroupingFromSize. MX
// formats always group along columns and fall back to MXBlockSize; mixed
// formats fall back to one group per row.
func NewQuantizer(datatype string, bits, groupSize int) (*Quantizer, error) {
	f, err := ParseFormat(datatype, bits)
	if err != nil {
		return nil, err
	}
	return New(f, GroupingFromSize(groupSize)), nil
}

// New builds a Quantizer from an already resolved format.
func New(f Format, g Grouping) *Quantizer {
	switch f.Kind {
	case KindMX:
		if g.Mode != PerGroup || g.Size <= 0 {
			g = Grouping{Mode: PerGroup, Size: MXBlockSize}
		}
	case KindMixed:
		if g.Mode != PerGroup || g.Size <= 0 {
			g = Grouping{Mode: PerChannel}
		}
	}
	return &Quantizer{format: f, grouping: g}
}

func (q *Quantizer) Format() Format     { return q.format }
func (q *Quantizer) Grouping() Grouping { return q.grouping }

// Check reports whether a (rows, cols) matrix can be quantized without doing
// any work. Callers use it to validate a whole model before mutating it.
func (q *Quantizer) Check(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("%w: (%d, %d)", ErrShapeMismatch, rows, cols)
	}
	if q.format.Kind == KindIdentity {
		return nil
	}
	_, err := q.grouping.Layout(rows, cols)
	return err
}

// Quantize runs the quantize-dequantize kernel for the configured format. m is
// not modified.
func (q *Quantizer) Quantize(m Matrix) (*Result, error) {
	if q.format.Kind == KindIdentity {
		if err := m.validate(); err != nil {
			return nil, err
		}
		return &Result{
			Format:      q.format,
			Grouping:    q.grouping,
			Layout:      Layout{Rows: 1, Groups: 1, Width: len(m.Data)},
			Dequantized: Matrix{Rows: m.Rows, Cols: m.Cols, Data: slices.Clone(m.Data)},
		}, nil
	}

	g, err := Group(m, q.grouping)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Format:   q.format,
		Grouping: q.grouping,
		Layout:   g.Layout,
		Codes:    make([]float64, len(g.Data)),
	}
	n := g.Layout.NumGroups()
	codes := Grouped{Layout: g.Layout, Data: res.Codes}

	switch q.format.Kind {
	case KindInt:
		qmin, qmax := q.format.QMin(), q.format.QMax()
		var cal Calibration
		if q.format.Asymmetric {
			cal = CalibrateAsymmetric(g, qmin, qmax)
		} else {
			cal = CalibrateSymmetric(g, qmax)
		}
		for i := range n {
			var zp float64
			if cal.ZeroPoints != nil {
				zp = cal.ZeroPoints[i]
			}
			quantizeIntGroup(g.At(i), codes.At(i), cal.Scales[i], zp, qmin, qmax, q.format.Asymmetric)
		}
		res.Scales, res.ZeroPoints = cal.Scales, cal.ZeroPoints

	case KindFloat:
		c := q.format.Catalog
		cal := CalibrateSymmetric(g, c.MaxAbs())
		for i := range n {
			quantizeCatalogGroup(g.At(i), codes.At(i), c, cal.Scales[i])
		}
		res.Scales = cal.Scales

	case KindMX:
		c := q.format.Catalog
		res.Scales = make([]float64, n)
		res.Exponents = make([]int, n)
		for i := range n {
			group := g.At(i)
			exp := SharedExponent(group)
			quantizeMXGroup(group, codes.At(i), c, exp)
			res.Scales[i] = mxScale(c)
			res.Exponents[i] = exp
		}

	case KindMixed:
		res.Scales = make([]float64, n)
		res.Choices = make([]int, n)
		res.GroupMSE = make([]float64, n)
		scratch := make([]float64, g.Layout.Width)
		for i := range n {
			sel := selectGroup(g.At(i), codes.At(i), scratch, q.format.Candidates)
			res.Scales[i] = sel.Scale
			res.Choices[i] = sel.Choice
			res.GroupMSE[i] = sel.MSE
		}

	default:
		return nil, fmt.Errorf("quant: unhandled format kind %s", q.format.Kind)
	}

	// g.Data is already a private copy, hand it over without cloning again.
	res.Dequantized = Matrix{Rows: m.Rows, Cols: m.Cols, Data: g.Data}
	return res, nil
}

// Dequantize is Quantize without the metadata.
func (q *Quantizer) Dequantize(m Matrix) (Matrix, error) {
	res, err := q.Quantize(m)
	if err != nil {
		return Matrix{}, err
	}
	return res.Dequantized, nil
}

// QuantizeDequantize is the one-shot form: resolve, quantize, return the
// reconstructed matrix.
func QuantizeDequantize(m Matrix, datatype string, bits, groupSize int) (Matrix, error) {
	q, err := NewQuantizer(datatype, bits, groupSize)
	if err != nil {
		return Matrix{}, err
	}
	return q.Dequantize(m)
}
