package analysis

import (
	"fmt"
	"math"
	"sort"
)

// Buckets is an absolute-error histogram on a fixed step grid. Bucket i has
// value i*Step and holds errors in (i*Step, (i+1)*Step]; the last bucket also
// takes everything above the grid.
type Buckets struct {
	Step     float64   `json:"step"`
	Values   []float64 `json:"values"`
	Counts   []int     `json:"counts"`
	Assigned []float64 `json:"-"` // bucket value per input element
}

// Bucketize digitises absolute errors onto the grid step, 2*step, ... up to
// limit.
func Bucketize(absErr []float64, step, limit float64) (Buckets, error) {
	if !(step > 0) || !(limit >= step) {
		return Buckets{}, fmt.Errorf("analysis: bucket step %v and limit %v must satisfy 0 < step <= limit", step, limit)
	}
	// Same edge count as arange(step, limit+step, step).
	n := int(math.Ceil(((limit + step) - step) / step))
	edges := make([]float64, n)
	values := make([]float64, n)
	for i := range n {
		edges[i] = step + float64(i)*step
		values[i] = float64(i) * step
	}

	b := Buckets{
		Step:     step,
		Values:   values,
		Counts:   make([]int, n),
		Assigned: make([]float64, len(absErr)),
	}
	for j, e := range absErr {
		// Right-closed: the first edge >= e.
		idx := min(sort.SearchFloat64s(edges, e), n-1)
		b.Counts[idx]++
		b.Assigned[j] = values[idx]
	}
	return b, nil
}
