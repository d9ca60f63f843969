package store

import (
	"sync"

	"roulette-live-client/internal/models"
)

// MemoryStore is an in-process Store. It satisfies the interface for tests
// and for running without Redis, at the cost of not surviving restarts.
type MemoryStore struct {
	mu     sync.Mutex
	ops    map[models.TransferKind]models.TransferOperation
	nonces map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ops:    make(map[models.TransferKind]models.TransferOperation),
		nonces: make(map[string]bool),
	}
}

func (s *MemoryStore) SaveOperation(op *models.TransferOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[op.Kind] = *op
	return nil
}

func (s *MemoryStore) LoadOperation(kind models.TransferKind) (*models.TransferOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.ops[kind]
	if !ok {
		return nil, nil
	}
	cp := op
	return &cp, nil
}

func (s *MemoryStore) MarkNonceUsed(nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[nonce] = true
	return nil
}

func (s *MemoryStore) NonceUsed(nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonces[nonce], nil
}

func (s *MemoryStore) Close() error { return nil }
