package pipeline

import (
	"sync"

	"github.com/proof-of-inference/avs-backend/pkg/types"
)

// ResultStore keeps the most recent response per request id for status
// lookups. In-memory only; the durable record of work is the receipt, which
// the registry owns.
type ResultStore struct {
	mu      sync.RWMutex
	results map[uint64]types.TaskResponse
}

// NewResultStore creates an empty result store
func NewResultStore() *ResultStore {
	return &ResultStore{
		results: make(map[uint64]types.TaskResponse),
	}
}

// Put stores the response for a request id, replacing any previous one
func (s *ResultStore) Put(response types.TaskResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[response.RequestID] = response
}

// Get returns the stored response for a request id
func (s *ResultStore) Get(requestID uint64) (types.TaskResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	response, ok := s.results[requestID]
	return response, ok
}
