package storage

import (
	"context"
	"sync"

	"github.com/BruksfildServices01/client-portal/internal/domain/document"
)

type MemoryDocuments struct {
	mu   sync.Mutex
	docs map[uint]map[string]bool
}

func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{docs: make(map[uint]map[string]bool)}
}

// Put marks names as uploaded for clientID.
func (m *MemoryDocuments) Put(clientID uint, names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[clientID] == nil {
		m.docs[clientID] = make(map[string]bool)
	}
	for _, n := range names {
		m.docs[clientID][n] = true
	}
}

func (m *MemoryDocuments) Missing(_ context.Context, clientID uint, required []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return missingFrom(m.docs[clientID], required), nil
}

var _ document.Store = (*MemoryDocuments)(nil)
