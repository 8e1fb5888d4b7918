package chaosmongo

import (
	"fmt"
	"strings"
	"sync"

	"github.com/chaosmongo/chaosmongo/pkg/errmodel"
)

// TypeMap is the collection-name resolver collaborator: a static
// type-to-name map. It holds explicit entries only; it does not read
// UseDefaultCollectionNames and does not fall back to the short type name
// for a type with no entry.
type TypeMap struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewTypeMap() *TypeMap {
	return &TypeMap{entries: make(map[string]string)}
}

// Register maps fullTypeName to collectionName. Fails validation if
// either is blank.
func (m *TypeMap) Register(fullTypeName, collectionName string) error {
	if strings.TrimSpace(fullTypeName) == "" {
		return fmt.Errorf("chaosmongo: type map key must not be empty: %w", errmodel.ErrConfiguration)
	}

	if strings.TrimSpace(collectionName) == "" {
		return fmt.Errorf("chaosmongo: type map value for %q must not be empty: %w", fullTypeName, errmodel.ErrConfiguration)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[fullTypeName] = collectionName

	return nil
}

// Resolve looks up an explicit mapping for fullTypeName and reports false
// on a miss.
func (m *TypeMap) Resolve(fullTypeName string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name, ok := m.entries[fullTypeName]

	return name, ok
}
