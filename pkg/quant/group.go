package quant

import (
	"fmt"
	"slices"
)

// Matrix is a row-major (Rows, Cols) weight matrix: Rows output channels by
// Cols input channels.
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

// NewMatrix wraps data as a (rows, cols) matrix without copying.
func NewMatrix(rows, cols int, data []float64) (Matrix, error) {
	m := Matrix{Rows: rows, Cols: cols, Data: data}
	return m, m.validate()
}

// MatrixFromFloat32 copies a float32 buffer into a float64 matrix.
func MatrixFromFloat32(rows, cols int, data []float32) (Matrix, error) {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return NewMatrix(rows, cols, out)
}

// Float32 converts the matrix data back to float32.
func (m Matrix) Float32() []float32 {
	out := make([]float32, len(m.Data))
	for i, v := range m.Data {
		out[i] = float32(v)
	}
	return out
}

func (m Matrix) validate() error {
	if m.Rows <= 0 || m.Cols <= 0 {
		return fmt.Errorf("%w: (%d, %d)", ErrShapeMismatch, m.Rows, m.Cols)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return fmt.Errorf("%w: (%d, %d) needs %d values, got %d",
			ErrShapeMismatch, m.Rows, m.Cols, m.Rows*m.Cols, len(m.Data))
	}
	return nil
}

// Granularity is the extent over which one scale is shared.
type Granularity uint8

const (
	PerTensor Granularity = iota
	PerChannel
	PerGroup
)

func (g Granularity) String() string {
	switch g {
	case PerTensor:
		return "per-tensor"
	case PerChannel:
		return "per-channel"
	case PerGroup:
		return "per-group"
	default:
		return "unknown"
	}
}

// Grouping is a Granularity plus the block width for PerGroup.
type Grouping struct {
	Mode Granularity
	Size int
}

// GroupingFromSize maps the external group-size convention: -1 (or any
// negative) per-tensor, 0 per-channel, positive per-group of that width.
func GroupingFromSize(groupSize int) Grouping {
	switch {
	case groupSize < 0:
		return Grouping{Mode: PerTensor}
	case groupSize == 0:
		return Grouping{Mode: PerChannel}
	default:
		return Grouping{Mode: PerGroup, Size: groupSize}
	}
}

// GroupSize is the inverse of GroupingFromSize.
func (g Grouping) GroupSize() int {
	switch g.Mode {
	case PerTensor:
		return -1
	case PerChannel:
		return 0
	default:
		return g.Size
	}
}

func (g Grouping) String() string {
	if g.Mode == PerGroup {
		return fmt.Sprintf("per-group(%d)", g.Size)
	}
	return g.Mode.String()
}

// Layout is the logical grouped shape (Rows, Groups, Width). Groups are
// contiguous in the row-major buffer, so group i covers
// data[i*Width : (i+1)*Width].
type Layout struct {
	Rows   int
	Groups int
	Width  int
}

// NumGroups is the number of independently calibrated groups.
func (l Layout) NumGroups() int { return l.Rows * l.Groups }

// Span returns the [start, end) range of group i in the flat buffer.
func (l Layout) Span(i int) (int, int) {
	return i * l.Width, (i + 1) * l.Width
}

// Layout returns the grouped shape for a (rows, cols) matrix.
func (g Grouping) Layout(rows, cols int) (Layout, error) {
	switch g.Mode {
	case PerTensor:
		return Layout{Rows: 1, Groups: 1, Width: rows * cols}, nil
	case PerChannel:
		return Layout{Rows: rows, Groups: 1, Width: cols}, nil
	case PerGroup:
		if g.Size <= 0 || cols%g.Size != 0 {
			return Layout{}, fmt.Errorf("%w: %d input channels, group size %d", ErrGroupSizeMismatch, cols, g.Size)
		}
		return Layout{Rows: rows, Groups: cols / g.Size, Width: g.Size}, nil
	default:
		return Layout{}, fmt.Errorf("quant: unknown granularity %d", g.Mode)
	}
}

// Grouped is a matrix viewed as NumGroups() contiguous groups of Width values.
type Grouped struct {
	Layout Layout
	Data   []float64
}

// Group returns the grouped view of m. The data is copied so kernels can
// work in place without touching the caller's matrix.
func Group(m Matrix, g Grouping) (Grouped, error) {
	if err := m.validate(); err != nil {
		return Grouped{}, err
	}
	l, err := g.Layout(m.Rows, m.Cols)
	if err != nil {
		return Grouped{}, err
	}
	return Grouped{Layout: l, Data: slices.Clone(m.Data)}, nil
}

// At returns group i as a sub-slice.
func (g Grouped) At(i int) []float64 {
	start, end := g.Layout.Span(i)
	return g.Data[start:end]
}

// Ungroup restores the (rows, cols) matrix from a grouped view.
func Ungroup(g Grouped, rows, cols int) (Matrix, error) {
	if g.Layout.NumGroups()*g.Layout.Width != rows*cols || len(g.Data) != rows*cols {
		return Matrix{}, fmt.Errorf("%w: grouped %dx%dx%d into (%d, %d)",
			ErrShapeMismatch, g.Layout.Rows, g.Layout.Groups, g.Layout.Width, rows, cols)
	}
	return Matrix{Rows: rows, Cols: cols, Data: slices.Clone(g.Data)}, nil
}
