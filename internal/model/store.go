package model

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/samcharles93/quantsim/internal/safetensors"
	"github.com/samcharles93/quantsim/pkg/quant"
)

// Tensor is a float weight held in memory. DType records the container type
// it was read from so it can be written back the same way.
type Tensor struct {
	Name  string
	DType safetensors.DType
	Shape []int
	Data  []float32
}

// Matrix views a rank-2 tensor as a quant.Matrix.
func (t *Tensor) Matrix() (quant.Matrix, error) {
	if len(t.Shape) != 2 {
		return quant.Matrix{}, fmt.Errorf("%w: %s has rank %d", quant.ErrShapeMismatch, t.Name, len(t.Shape))
	}
	return quant.MatrixFromFloat32(t.Shape[0], t.Shape[1], t.Data)
}

// Store is a named weight collection. Float tensors are decoded so the
// driver can replace them; everything else passes through as raw bytes.
type Store struct {
	mu       sync.RWMutex
	tensors  map[string]*Tensor
	raw      map[string]safetensors.TensorData
	Metadata map[string]string
}

func NewStore() *Store {
	return &Store{
		tensors: make(map[string]*Tensor),
		raw:     make(map[string]safetensors.TensorData),
	}
}

// LoadSafetensors decodes every float tensor of a safetensors file.
func LoadSafetensors(path string) (*Store, error) {
	f, err := safetensors.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadFile(f)
}

// LoadFile copies tensors out of an opened container.
func LoadFile(f *safetensors.File) (*Store, error) {
	s := NewStore()
	s.Metadata = maps.Clone(f.Metadata)
	for _, name := range f.Names() {
		info, _ := f.Tensor(name)
		if !info.DType.Float() {
			td, err := f.TensorData(name)
			if err != nil {
				return nil, err
			}
			s.raw[name] = td
			continue
		}
		data, info, err := f.ReadTensorF32(name)
		if err != nil {
			return nil, err
		}
		s.tensors[name] = &Tensor{
			Name:  name,
			DType: info.DType,
			Shape: slices.Clone(info.Shape),
			Data:  data,
		}
	}
	return s, nil
}

// Put adds or replaces a tensor.
func (s *Store) Put(t *Tensor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.raw, t.Name)
	s.tensors[t.Name] = t
}

// Get returns a float tensor by name.
func (s *Store) Get(name string) (*Tensor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tensors[name]
	return t, ok
}

// Names lists float tensor names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.tensors))
}

// Len counts float and pass-through tensors.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tensors) + len(s.raw)
}

// Replace swaps a tensor's data in place, keeping its name, shape and dtype.
func (s *Store) Replace(name string, data []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tensors[name]
	if !ok {
		return fmt.Errorf("%w: %s", safetensors.ErrTensorNotFound, name)
	}
	if len(data) != len(t.Data) {
		return fmt.Errorf("%w: %s has %d values, replacement has %d",
			quant.ErrShapeMismatch, name, len(t.Data), len(data))
	}
	t.Data = data
	return nil
}

// Save writes every tensor plus extra to path. A non-empty cast converts
// float tensors to that dtype; otherwise each keeps the dtype it was loaded
// with.
func (s *Store) Save(path string, cast safetensors.DType, extra []safetensors.TensorData) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]safetensors.TensorData, 0, len(s.tensors)+len(s.raw)+len(extra))
	for _, name := range slices.Sorted(maps.Keys(s.tensors)) {
		t := s.tensors[name]
		dtype := t.DType
		if cast != "" {
			dtype = cast
		}
		td, err := safetensors.FloatTensor(name, dtype, t.Shape, t.Data)
		if err != nil {
			return err
		}
		out = append(out, td)
	}
	for _, td := range s.raw {
		out = append(out, td)
	}
	out = append(out, extra...)
	return safetensors.WriteFile(path, out, s.Metadata)
}
