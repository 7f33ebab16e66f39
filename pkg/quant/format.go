package quant

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Kind selects the quantize-dequantize kernel for a format.
type Kind uint8

const (
	KindIdentity Kind = iota // fp16/fp32 baseline, no quantization
	KindInt                  // uniform integer
	KindFloat                // non-uniform catalog
	KindMX                   // shared exponent
	KindMixed                // per-group search over candidates
)

func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindMX:
		return "mx"
	case KindMixed:
		return "mixed"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for c := KindIdentity; c <= KindMixed; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("%w: kind %q", ErrUnknownDatatype, b)
}

const (
	// MinIntBits and MaxIntBits bound the uniform integer path.
	MinIntBits = 2
	MaxIntBits = 8

	// MXBlockSize is the OCP microscaling block size, used when an MX format
	// is requested without a positive group size.
	MXBlockSize = 32
)

// Format is a datatype identifier resolved against the catalogs. It is
// immutable once built and safe to share between goroutines.
type Format struct {
	Name       string
	Kind       Kind
	Bits       int
	Asymmetric bool
	Catalog    *Catalog
	Candidates []*Catalog
}

// QMin and QMax are the code range of a uniform integer format.
func (f Format) QMin() float64 {
	if f.Asymmetric {
		return 0
	}
	return -f.QMax()
}

func (f Format) QMax() float64 {
	if f.Asymmetric {
		return float64(int(1)<<f.Bits - 1)
	}
	return float64(int(1)<<(f.Bits-1) - 1)
}

func (f Format) String() string {
	if f.Kind == KindIdentity {
		return f.Name
	}
	return fmt.Sprintf("%s/%d-bit", f.Name, f.Bits)
}

var mixedCandidates = map[string]map[int][]string{
	"mixed_bitmod": {
		3: {"fp3_er_pos", "fp3_er_neg", "fp3_ea_pos", "fp3_ea_neg"},
		4: {"fp4_er_pos", "fp4_er_neg", "fp4_ea_pos", "fp4_ea_neg"},
	},
	"mixed_er": {
		3: {"fp3_er_pos", "fp3_er_neg"},
		4: {"fp4_er_pos", "fp4_er_neg"},
	},
	"mixed_ea": {
		3: {"fp3_ea_pos", "fp3_ea_neg"},
		4: {"fp4_ea_pos", "fp4_ea_neg"},
	},
	"mixed_ant": {
		3: {"int3", "fp3"},
		4: {"int4", "flint4"},
	},
}

// MixedDatatypes lists the mixed_* family names in sorted order.
func MixedDatatypes() []string {
	return slices.Sorted(maps.Keys(mixedCandidates))
}

// ParseFormat resolves a datatype name and bit width into a Format.
//
//	""/fp16/fp32  identity
//	int<N>[_asym] uniform integer, N must equal bits
//	mx_*          shared exponent, 3 or 4 bits
//	mixed_*       per-group search, 3 or 4 bits
//	anything else non-uniform catalog
func ParseFormat(name string, bits int) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch {
	case name == "" || name == "fp16" || name == "fp32" || name == "bf16":
		if name == "" {
			name = "fp16"
		}
		return Format{Name: name, Kind: KindIdentity, Bits: bits}, nil

	case strings.HasPrefix(name, "int"):
		return parseIntFormat(name, bits)

	case strings.HasPrefix(name, "mx_"):
		c, err := LookupMXCatalog(name, bits)
		if err != nil {
			return Format{}, err
		}
		return Format{Name: name, Kind: KindMX, Bits: bits, Catalog: c}, nil

	case strings.HasPrefix(name, "mixed_"):
		byBits, ok := mixedCandidates[name]
		if !ok {
			return Format{}, fmt.Errorf("%w: %q", ErrUnknownDatatype, name)
		}
		names, ok := byBits[bits]
		if !ok {
			return Format{}, fmt.Errorf("%w: mixed search supports 3 and 4 bits, not %d", ErrUnsupportedBitWidth, bits)
		}
		f := Format{Name: name, Kind: KindMixed, Bits: bits}
		for _, n := range names {
			c, err := LookupCatalog(n, bits)
			if err != nil {
				return Format{}, err
			}
			f.Candidates = append(f.Candidates, c)
		}
		return f, nil

	default:
		c, err := LookupCatalog(name, bits)
		if err != nil {
			return Format{}, err
		}
		return Format{Name: name, Kind: KindFloat, Bits: bits, Catalog: c}, nil
	}
}

func parseIntFormat(name string, bits int) (Format, error) {
	base, asym := strings.CutSuffix(name, "_asym")
	if !asym {
		base, _ = strings.CutSuffix(base, "_sym")
	}
	digits := strings.TrimPrefix(base, "int")
	if digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil {
			return Format{}, fmt.Errorf("%w: %q", ErrUnknownDatatype, name)
		}
		if n != bits {
			return Format{}, fmt.Errorf("%w: %q for %d-bit", ErrUnknownDatatype, name, bits)
		}
	}
	if bits < MinIntBits || bits > MaxIntBits {
		return Format{}, fmt.Errorf("%w: integer formats support %d to %d bits, not %d",
			ErrUnsupportedBitWidth, MinIntBits, MaxIntBits, bits)
	}
	return Format{Name: name, Kind: KindInt, Bits: bits, Asymmetric: asym}, nil
}
