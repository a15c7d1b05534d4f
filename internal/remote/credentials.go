package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pavelanni/neetmock/internal/model"
)

// Credential is the cached login for the persistence service.
type Credential struct {
	Token string         `json:"token"`
	Name  string         `json:"name"`
	Email string         `json:"email"`
	Role  model.UserRole `json:"role"`
}

// CredentialStore keeps the current credential in memory and mirrors it
// to a JSON file. An empty path keeps it in memory only.
type CredentialStore struct {
	path string

	mu   sync.Mutex
	cred *Credential
}

// NewCredentialStore creates a store backed by path.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// Load reads the credential file. A missing file is not an error.
func (s *CredentialStore) Load() (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return s.cred, nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.cred = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", s.path, err)
	}
	if c.Token == "" {
		s.cred = nil
		return nil, nil
	}
	s.cred = &c
	return s.cred, nil
}

// Save replaces the credential and writes it with owner-only permissions.
func (s *CredentialStore) Save(c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred = &c
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear forgets the credential and removes the file.
func (s *CredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred = nil
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// Current returns a copy of the credential, or nil when logged out.
func (s *CredentialStore) Current() *Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return nil
	}
	c := *s.cred
	return &c
}

// Token returns the bearer token, or "" when logged out.
func (s *CredentialStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return ""
	}
	return s.cred.Token
}
