package editor

import (
	"sort"
	"sync"
)

// BackupStore holds the pre-edit snapshot of every file touched since its last undo.
// The first capture for a path wins until Take or Drop removes it.
type BackupStore struct {
	mu        sync.Mutex
	snapshots map[string][]byte
}

func NewBackupStore() *BackupStore {
	return &BackupStore{snapshots: make(map[string][]byte)}
}

// Capture stores content for key unless a snapshot already exists.
// It reports whether content was stored.
func (s *BackupStore) Capture(key string, content []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snapshots[key]; ok {
		return false
	}
	s.snapshots[key] = append([]byte(nil), content...)
	return true
}

// Get returns a copy of the snapshot for key.
func (s *BackupStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.snapshots[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Drop removes the snapshot for key.
func (s *BackupStore) Drop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, key)
}

func (s *BackupStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snapshots[key]
	return ok
}

// Paths returns the keys with a pending snapshot, sorted.
func (s *BackupStore) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.snapshots))
	for k := range s.snapshots {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}

func (s *BackupStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}
