package nqcrypt

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a ContainerStore backed by a map. Containers are cloned on
// the way in and out.
type MemoryStore struct {
	mu         sync.RWMutex
	containers map[string]*Container
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{containers: make(map[string]*Container)}
}

func (m *MemoryStore) Save(ctx context.Context, c *Container) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c == nil {
		return "", fmt.Errorf("%w: container is nil", ErrInvalidContainer)
	}
	id := uuid.NewString()

	m.mu.Lock()
	m.containers[id] = c.Clone()
	m.mu.Unlock()

	return id, nil
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	c, ok := m.containers[id]
	m.mu.RUnlock()

	if !ok {
		return nil, NewNotFoundError("container", id)
	}
	return c.Clone(), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.containers[id]; !ok {
		return NewNotFoundError("container", id)
	}
	delete(m.containers, id)
	return nil
}

// Len returns the number of stored containers.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.containers)
}
