package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"ideatracker/infrastructure/persistence/keypath"
)

// PathStore is an in-process implementation of ports.PathStore. It backs
// tests and the default local run.
type PathStore struct {
	mu    sync.RWMutex
	nodes map[string]map[string][]byte // parent -> key -> value
}

// NewPathStore creates an empty store
func NewPathStore() *PathStore {
	return &PathStore{
		nodes: make(map[string]map[string][]byte),
	}
}

// Get returns the leaf at path, or the object of its direct children.
func (s *PathStore) Get(ctx context.Context, path string) ([]byte, bool, error) {
	if err := keypath.Validate(path); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, key := keypath.Split(path)
	if value, ok := s.nodes[parent][key]; ok {
		return append([]byte(nil), value...), true, nil
	}

	children, ok := s.nodes[path]
	if !ok || len(children) == 0 {
		return nil, false, nil
	}

	list := make([]keypath.Child, 0, len(children))
	for k, v := range children {
		list = append(list, keypath.Child{Key: k, Value: v})
	}
	data, err := keypath.EncodeChildren(list)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set replaces the leaf at path.
func (s *PathStore) Set(ctx context.Context, path string, value []byte) error {
	if err := keypath.Validate(path); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("value at %s is not valid JSON", path)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, key := keypath.Split(path)
	children, ok := s.nodes[parent]
	if !ok {
		children = make(map[string][]byte)
		s.nodes[parent] = children
	}
	children[key] = append([]byte(nil), value...)
	return nil
}
