package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultSessionFile is the session blob's file name inside the perkloop
// config directory.
const DefaultSessionFile = "session.json"

// Storage persists the session blob between process runs. Load returns
// (nil, nil) when nothing is stored.
type Storage interface {
	Load() (*Session, error)
	Save(*Session) error
	Clear() error
}

// FileStorage keeps the whole session as one JSON file. Writes go through a
// temp file and rename so a crash mid-write cannot leave a torn blob.
type FileStorage struct {
	path string
}

// NewFileStorage creates a FileStorage at the given path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// DefaultPath returns ~/.perkloop/session.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, ".perkloop", DefaultSessionFile), nil
}

// Load reads the persisted session.
func (f *FileStorage) Load() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session %s: %w", f.path, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	return &s, nil
}

// Save writes the session. The file is user-readable only, it holds tokens.
func (f *FileStorage) Save(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing session: %w", err)
	}
	return nil
}

// Clear removes the persisted session. Missing file is not an error.
func (f *FileStorage) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// MemoryStorage is an in-memory Storage for tests.
type MemoryStorage struct {
	mu sync.Mutex
	s  *Session
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Load returns the stored session, or (nil, nil).
func (m *MemoryStorage) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, nil
	}
	cp := *m.s
	return &cp, nil
}

// Save stores a copy of the session.
func (m *MemoryStorage) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.s = &cp
	return nil
}

// Clear drops the stored session.
func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}
