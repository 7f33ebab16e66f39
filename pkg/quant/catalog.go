package quant

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
)

// Catalog is the sorted set of values a non-uniform format can represent,
// with the bucket boundaries used for nearest-value assignment.
type Catalog struct {
	name   string
	bits   int
	values []float64
	mids   []float64
	maxAbs float64
}

func newCatalog(name string, bits int, values []float64) *Catalog {
	if len(values) < 2 {
		panic("quant: catalog " + name + " needs at least two values")
	}
	mids := make([]float64, len(values)-1)
	for i := range mids {
		if values[i] >= values[i+1] {
			panic("quant: catalog " + name + " is not strictly ascending")
		}
		mids[i] = (values[i] + values[i+1]) / 2
	}
	maxAbs := max(math.Abs(values[0]), math.Abs(values[len(values)-1]))
	return &Catalog{
		name:   name,
		bits:   bits,
		values: values,
		mids:   mids,
		maxAbs: maxAbs,
	}
}

func (c *Catalog) Name() string { return c.name }

func (c *Catalog) Bits() int { return c.bits }

// Len returns the number of representable values.
func (c *Catalog) Len() int { return len(c.values) }

// Values returns a copy of the representable values.
func (c *Catalog) Values() []float64 { return slices.Clone(c.values) }

// MaxAbs is the largest representable magnitude, used as qmax for calibration.
func (c *Catalog) MaxAbs() float64 { return c.maxAbs }

// Index returns the bucket holding x. Buckets are (mid[i-1], mid[i]], the
// first is open to the left and the last to the right, so a value sitting
// exactly on a midpoint goes to the lower neighbour.
func (c *Catalog) Index(x float64) int {
	return sort.SearchFloat64s(c.mids, x)
}

// Nearest returns the representable value selected for x.
func (c *Catalog) Nearest(x float64) float64 {
	return c.values[c.Index(x)]
}

type catalogKey struct {
	bits int
	name string
}

var (
	floatCatalogs = map[catalogKey]*Catalog{}
	mxCatalogs    = map[catalogKey]*Catalog{}
)

func register(dst map[catalogKey]*Catalog, bits int, name string, values []float64) {
	dst[catalogKey{bits: bits, name: name}] = newCatalog(name, bits, values)
}

func init() {
	register(floatCatalogs, 3, "int3", int3Values)
	register(floatCatalogs, 3, "fp3", fp3Values)
	register(floatCatalogs, 3, "fp3_er_pos", fp3ERPosValues)
	register(floatCatalogs, 3, "fp3_er_neg", fp3ERNegValues)
	register(floatCatalogs, 3, "fp3_ea_pos", fp3EAPosValues)
	register(floatCatalogs, 3, "fp3_ea_neg", fp3EANegValues)

	register(floatCatalogs, 4, "int4", int4Values)
	register(floatCatalogs, 4, "fp4", fp4E2M1Values)
	register(floatCatalogs, 4, "flint4", flint4Values)
	register(floatCatalogs, 4, "fp4_er_pos", fp4ERPosValues)
	register(floatCatalogs, 4, "fp4_er_neg", fp4ERNegValues)
	register(floatCatalogs, 4, "fp4_ea_pos", fp4EAPosValues)
	register(floatCatalogs, 4, "fp4_ea_neg", fp4EANegValues)

	register(floatCatalogs, 5, "int5", int5Values)
	register(floatCatalogs, 5, "fp5", fp5E2M2Values)
	register(floatCatalogs, 5, "flint5", flint5Values)
	register(floatCatalogs, 5, "fp5_e2m2", fp5E2M2Values)
	register(floatCatalogs, 5, "fp5_e3m1", fp5E3M1Values)

	register(floatCatalogs, 6, "int6", int6Values)
	register(floatCatalogs, 6, "fp6", fp6E2M3Values)
	register(floatCatalogs, 6, "fp6_e2m3", fp6E2M3Values)
	register(floatCatalogs, 6, "fp6_e3m2", fp6E3M2Values)

	register(floatCatalogs, 8, "int8", int8Values)
	register(floatCatalogs, 8, "fp8_e2m5", fp8E2M5Values)
	register(floatCatalogs, 8, "fp8_e3m4", fp8E3M4Values)
	register(floatCatalogs, 8, "fp8_e4m3", fp8E4M3Values)
	register(floatCatalogs, 8, "fp8_e5m2", fp8E5M2Values)

	register(mxCatalogs, 3, "mx_int3", int3Values)
	register(mxCatalogs, 3, "mx_fp3", fp3Values)
	register(mxCatalogs, 4, "mx_int4", int4Values)
	register(mxCatalogs, 4, "mx_fp4", fp4E2M1Values)
}

func lookup(tables map[catalogKey]*Catalog, name string, bits int) (*Catalog, error) {
	if c, ok := tables[catalogKey{bits: bits, name: name}]; ok {
		return c, nil
	}
	for k := range tables {
		if k.bits == bits {
			return nil, fmt.Errorf("%w: %q for %d-bit", ErrUnknownDatatype, name, bits)
		}
	}
	return nil, fmt.Errorf("%w: %d-bit %q", ErrUnsupportedBitWidth, bits, name)
}

// LookupCatalog resolves a non-uniform floating-point catalog (fp*, flint*,
// and the catalog form of int*) for the given bit width.
func LookupCatalog(name string, bits int) (*Catalog, error) {
	return lookup(floatCatalogs, name, bits)
}

// LookupMXCatalog resolves an mx_* catalog. Only 3- and 4-bit exist.
func LookupMXCatalog(name string, bits int) (*Catalog, error) {
	return lookup(mxCatalogs, name, bits)
}

// CatalogInfo describes one registered catalog.
type CatalogInfo struct {
	Name   string  `json:"name"`
	Bits   int     `json:"bits"`
	Kind   Kind    `json:"kind"`
	Levels int     `json:"levels"`
	MaxAbs float64 `json:"max_abs"`
	// CandidateOnly marks tables reachable only through a mixed_* search;
	// the same names resolve to the uniform integer kernel on their own.
	CandidateOnly bool `json:"candidate_only,omitempty"`
}

// Catalogs lists every registered catalog ordered by bit width then name.
func Catalogs() []CatalogInfo {
	out := make([]CatalogInfo, 0, len(floatCatalogs)+len(mxCatalogs))
	for _, c := range floatCatalogs {
		out = append(out, CatalogInfo{
			Name:          c.name,
			Bits:          c.bits,
			Kind:          KindFloat,
			Levels:        c.Len(),
			MaxAbs:        c.maxAbs,
			CandidateOnly: strings.HasPrefix(c.name, "int"),
		})
	}
	for _, c := range mxCatalogs {
		out = append(out, CatalogInfo{Name: c.name, Bits: c.bits, Kind: KindMX, Levels: c.Len(), MaxAbs: c.maxAbs})
	}
	slices.SortFunc(out, func(a, b CatalogInfo) int {
		if a.Bits != b.Bits {
			return a.Bits - b.Bits
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out
}
