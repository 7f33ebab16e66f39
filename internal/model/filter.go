package model

import (
	"slices"
	"strings"
)

// Filter decides which tensors are linear-layer weights worth quantizing.
type Filter struct {
	// IncludeHead also quantizes the output projection (lm_head).
	IncludeHead bool
	// Only, when non-empty, restricts quantization to these names.
	Only []string
}

// ShouldQuantize accepts rank-2 tensors named *.weight, skipping embeddings,
// norms, biases and the output head.
func (f Filter) ShouldQuantize(name string, shape []int) bool {
	if len(f.Only) > 0 && !slices.Contains(f.Only, name) {
		return false
	}
	if len(shape) != 2 {
		return false
	}
	if !strings.HasSuffix(name, ".weight") {
		return false
	}
	if strings.Contains(name, "embed") || strings.Contains(name, "wte") || strings.Contains(name, "wpe") {
		return false
	}
	if strings.Contains(name, "norm") || strings.Contains(name, "ln_") {
		return false
	}
	if !f.IncludeHead && strings.Contains(name, "lm_head") {
		return false
	}
	return true
}
