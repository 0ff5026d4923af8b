package auth

import (
	"os"
	"path/filepath"
	"strings"
)

// Store keeps the bearer token in a file readable only by the user
type Store struct {
	Path string
}

func NewStore(path string) *Store { return &Store{Path: path} }

// Load returns the saved token, or "" when there is none
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token with 0600 permissions
func (s *Store) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(token+"\n"), 0600)
}

// Clear removes the token; a missing file is not an error
func (s *Store) Clear() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
