package api

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GenerationStore keeps completed generations addressable by id so clients
// can fetch or delete them after the fact.
type GenerationStore struct {
	mu          sync.Mutex
	generations map[string]GenerateResponse
}

func NewGenerationStore() *GenerationStore {
	return &GenerationStore{
		generations: make(map[string]GenerateResponse),
	}
}

// Put records a finished generation and returns it stamped with a fresh id.
func (s *GenerationStore) Put(resp GenerateResponse, now time.Time) GenerateResponse {
	resp.ID = newGenerationID()
	resp.Object = "generation"
	resp.CreatedAt = now.Unix()

	s.mu.Lock()
	s.generations[resp.ID] = resp
	s.mu.Unlock()
	return resp
}

func (s *GenerationStore) Get(id string) (GenerateResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.generations[id]
	return resp, ok
}

func (s *GenerationStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.generations[id]; !ok {
		return false
	}
	delete(s.generations, id)
	return true
}

func (s *GenerationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.generations)
}

func newGenerationID() string {
	return "gen_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
