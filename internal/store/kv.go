// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is the durable key-value contract the rest of parley depends on.
// Values are opaque strings; serialization is the caller's concern.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)

	// Set persists a value synchronously before returning.
	Set(key, value string) error

	// Remove deletes a key. Removing an absent key is not an error.
	Remove(key string) error

	// Apply atomically sets and removes multiple keys in one durable
	// write, so multi-key updates never persist partially.
	Apply(set map[string]string, remove []string) error
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore implements Store on a single JSON file.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// Open loads a FileStore from path, creating an empty one if the file does
// not exist yet.
func Open(path string) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("store file %s is corrupt: %w", path, err)
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the value for key and whether it was present.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set persists a value synchronously before returning.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

// Remove deletes a key. Removing an absent key is not an error.
func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flushLocked()
}

// Apply atomically sets and removes multiple keys in one durable write.
func (s *FileStore) Apply(set map[string]string, remove []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range set {
		s.values[k] = v
	}
	for _, k := range remove {
		delete(s.values, k)
	}
	return s.flushLocked()
}

// Reload re-reads the backing file, replacing in-memory state. Used when an
// external writer (another parley process) changed the file.
func (s *FileStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.values = make(map[string]string)
			return nil
		}
		return fmt.Errorf("failed to reload store file: %w", err)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("store file %s is corrupt: %w", s.path, err)
	}
	s.values = values
	return nil
}

// flushLocked serializes the map and writes it atomically. Caller holds mu.
func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}
	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}
