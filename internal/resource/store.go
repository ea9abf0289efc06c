// Package resource stores binary tool output on disk and hands out
// locators that the conversation (and the sidecar HTTP server) can
// reference instead of raw bytes.
package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Scheme prefixes every locator issued by the store.
const Scheme = "resource://"

// Store is a process-local file store. Entries live for the lifetime
// of the directory; callers using a temp dir get cleanup for free on
// reboot.
type Store struct {
	dir string

	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	path        string
	contentType string
}

// NewStore creates a store rooted at dir. An empty dir selects a fresh
// per-process temp directory.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "fnchat-resources-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create resource dir: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create resource dir: %w", err)
	}

	return &Store{
		dir:     dir,
		entries: make(map[string]entry),
	}, nil
}

// Put writes data and returns its locator.
func (s *Store) Put(data []byte, contentType string) (string, error) {
	id := uuid.NewString()
	path := filepath.Join(s.dir, id)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to store resource: %w", err)
	}

	s.mu.Lock()
	s.entries[id] = entry{path: path, contentType: contentType}
	s.mu.Unlock()

	return Scheme + id, nil
}

// Get returns the stored bytes and content type for an id.
func (s *Store) Get(id string) ([]byte, string, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("unknown resource %q", id)
	}

	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read resource %q: %w", id, err)
	}
	return data, e.contentType, nil
}

// ParseLocator extracts the id from a locator string.
func ParseLocator(locator string) (string, bool) {
	if !strings.HasPrefix(locator, Scheme) {
		return "", false
	}
	id := strings.TrimPrefix(locator, Scheme)
	return id, id != ""
}
