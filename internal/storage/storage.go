package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maltedev/shopping-price-tracker/internal/browser"
)

// Metadata describes the stored browser session.
type Metadata struct {
	Domain   string    `json:"domain"`
	LastUsed time.Time `json:"last_used"`
}

// Session is a cookie snapshot plus its metadata.
type Session struct {
	Cookies  []browser.Cookie
	Metadata Metadata
}

// SessionStore persists the browser session between runs. Callers must
// serialize runs against one store.
type SessionStore interface {
	// Load returns nil, nil when no session has been saved yet.
	Load() (*Session, error)
	Save(session *Session) error
}

// FileSessionStore writes the cookies as a JSON array and the metadata as a
// separate JSON object.
type FileSessionStore struct {
	mu           sync.Mutex
	cookieFile   string
	metadataFile string
}

func NewFileSessionStore(cookieFile, metadataFile string) *FileSessionStore {
	return &FileSessionStore{
		cookieFile:   cookieFile,
		metadataFile: metadataFile,
	}
}

func (s *FileSessionStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.cookieFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	session := &Session{}
	if err := json.Unmarshal(data, &session.Cookies); err != nil {
		return nil, fmt.Errorf("failed to decode cookie file: %w", err)
	}

	meta, err := os.ReadFile(s.metadataFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read session metadata: %w", err)
	default:
		if err := json.Unmarshal(meta, &session.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode session metadata: %w", err)
		}
	}

	return session, nil
}

func (s *FileSessionStore) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSON(s.cookieFile, session.Cookies); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	if err := writeJSON(s.metadataFile, session.Metadata); err != nil {
		return fmt.Errorf("failed to write session metadata: %w", err)
	}
	return nil
}

// writeJSON replaces path atomically through a temp file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpFile, path)
}

// MemorySessionStore keeps the session in process.
type MemorySessionStore struct {
	mu      sync.Mutex
	session *Session
	saves   int
}

func NewMemorySessionStore(initial *Session) *MemorySessionStore {
	return &MemorySessionStore{session: initial}
}

func (s *MemorySessionStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, nil
	}
	return copySession(s.session), nil
}

func (s *MemorySessionStore) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = copySession(session)
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemorySessionStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func copySession(in *Session) *Session {
	out := &Session{Metadata: in.Metadata}
	out.Cookies = append([]browser.Cookie(nil), in.Cookies...)
	return out
}
