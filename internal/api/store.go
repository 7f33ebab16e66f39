package api

import (
	"sync"

	"github.com/google/uuid"
)

// ResultStore keeps quantize responses in memory so they can be fetched or
// deleted by id.
type ResultStore struct {
	mu      sync.Mutex
	results map[string]*QuantizeResponse
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		results: make(map[string]*QuantizeResponse),
	}
}

// Save assigns a fresh id to resp and stores it.
func (s *ResultStore) Save(resp *QuantizeResponse) string {
	resp.ID = newResultID()
	s.mu.Lock()
	s.results[resp.ID] = resp
	s.mu.Unlock()
	return resp.ID
}

func (s *ResultStore) Get(id string) (*QuantizeResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.results[id]
	return resp, ok
}

func (s *ResultStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[id]; !ok {
		return false
	}
	delete(s.results, id)
	return true
}

func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func newResultID() string {
	return "qr_" + uuid.NewString()
}
