package analysis

import (
	"github.com/samcharles93/quantsim/pkg/quant"
)

// Report is one datatype's error against the unquantized matrix.
type Report struct {
	Datatype string     `json:"datatype"`
	Bits     int        `json:"bits"`
	Grouping string     `json:"grouping"`
	Metrics  Metrics    `json:"metrics"`
	Groups   GroupStats `json:"groups"`
}

// Evaluate quantizes m with q and measures the reconstruction. The result is
// returned alongside so callers can reuse the de-quantized matrix.
func Evaluate(m quant.Matrix, q *quant.Quantizer) (Report, *quant.Result, error) {
	res, err := q.Quantize(m)
	if err != nil {
		return Report{}, nil, err
	}
	metrics, err := Compare(m.Data, res.Dequantized.Data)
	if err != nil {
		return Report{}, nil, err
	}
	// Identity formats carry no calibration groups; score them per row.
	g := q.Grouping()
	if q.Format().Kind == quant.KindIdentity {
		g = quant.Grouping{Mode: quant.PerChannel}
	}
	groups, err := GroupErrors(m, res.Dequantized, g)
	if err != nil {
		return Report{}, nil, err
	}
	return Report{
		Datatype: q.Format().Name,
		Bits:     q.Format().Bits,
		Grouping: g.String(),
		Metrics:  metrics,
		Groups:   groups,
	}, res, nil
}

// EvaluateAll runs Evaluate for each datatype at the same bits and group
// size. Any resolution error aborts before work starts.
func EvaluateAll(m quant.Matrix, datatypes []string, bits, groupSize int) ([]Report, []*quant.Result, error) {
	qs := make([]*quant.Quantizer, len(datatypes))
	for i, dt := range datatypes {
		q, err := quant.NewQuantizer(dt, bits, groupSize)
		if err != nil {
			return nil, nil, err
		}
		if err := q.Check(m.Rows, m.Cols); err != nil {
			return nil, nil, err
		}
		qs[i] = q
	}
	reports := make([]Report, len(qs))
	results := make([]*quant.Result, len(qs))
	for i, q := range qs {
		r, res, err := Evaluate(m, q)
		if err != nil {
			return nil, nil, err
		}
		reports[i], results[i] = r, res
	}
	return reports, results, nil
}
