// Package prefs persists the small set of user preferences through a
// typed store with an injectable backend, instead of ambient global
// storage access.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Backend loads and saves the serialized preference blob.
type Backend interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// values is the on-disk shape.
type values struct {
	SessionID       string            `yaml:"session_id,omitempty"`
	AgentMode       bool              `yaml:"agent_mode,omitempty"`
	Timezone        string            `yaml:"timezone,omitempty"`
	PromptOverrides map[string]string `yaml:"prompt_overrides,omitempty"`
}

// Store provides typed access to persisted preferences. Every setter
// writes through to the backend immediately. All methods are
// thread-safe.
type Store struct {
	mu      sync.Mutex
	backend Backend
	vals    values
}

// NewStore loads existing preferences from the backend. A missing file
// yields empty preferences, not an error.
func NewStore(backend Backend) (*Store, error) {
	s := &Store{backend: backend}

	data, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &s.vals); err != nil {
			return nil, fmt.Errorf("parse preferences: %w", err)
		}
	}
	return s, nil
}

// SessionID returns the remembered chat session id.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vals.SessionID
}

// SetSessionID remembers the active chat session.
func (s *Store) SetSessionID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals.SessionID = id
	return s.saveLocked()
}

// AgentMode returns the agent-mode flag.
func (s *Store) AgentMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vals.AgentMode
}

// SetAgentMode sets the agent-mode flag.
func (s *Store) SetAgentMode(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals.AgentMode = on
	return s.saveLocked()
}

// Timezone returns the preferred zone name, or "" for the system zone.
func (s *Store) Timezone() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vals.Timezone
}

// SetTimezone sets the preferred zone name.
func (s *Store) SetTimezone(tz string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals.Timezone = tz
	return s.saveLocked()
}

// PromptOverride returns the per-agent prompt override, or "".
func (s *Store) PromptOverride(agent string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vals.PromptOverrides[agent]
}

// SetPromptOverride sets a per-agent prompt override; empty clears it.
func (s *Store) SetPromptOverride(agent, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vals.PromptOverrides == nil {
		s.vals.PromptOverrides = make(map[string]string)
	}
	if prompt == "" {
		delete(s.vals.PromptOverrides, agent)
	} else {
		s.vals.PromptOverrides[agent] = prompt
	}
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := yaml.Marshal(s.vals)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	if err := s.backend.Save(data); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// MemoryBackend holds the blob in memory, for tests.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
}

// Load returns the stored blob.
func (b *MemoryBackend) Load() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data, nil
}

// Save replaces the stored blob.
func (b *MemoryBackend) Save(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte(nil), data...)
	return nil
}

// FileBackend stores the blob at a filesystem path, creating parent
// directories on first save.
type FileBackend struct {
	Path string
}

// Load reads the file; a missing file yields an empty blob.
func (b *FileBackend) Load() ([]byte, error) {
	data, err := os.ReadFile(b.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save writes the file with private permissions.
func (b *FileBackend) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(b.Path), 0755); err != nil {
		return err
	}
	return os.WriteFile(b.Path, data, 0600)
}
