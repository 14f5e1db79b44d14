// Package filestore is the durable content root where accepted uploads land.
// Names are generated to be collision-resistant upstream, so the store is
// append-only and needs no locking.
package filestore

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// Store writes files under a root directory and addresses them by a
// root-relative public path.
type Store struct {
	root         string
	publicPrefix string
}

// New builds a Store rooted at dir. publicPrefix is the URL prefix stored on
// records (for example "/uploads").
func New(dir, publicPrefix string) *Store {
	return &Store{root: dir, publicPrefix: publicPrefix}
}

// Root returns the on-disk root directory.
func (s *Store) Root() string { return s.root }

// Write persists data under the generated name and returns the public path
// the record should reference. The root directory is created on demand.
func (s *Store) Write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.root, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path.Join(s.publicPrefix, name), nil
}
