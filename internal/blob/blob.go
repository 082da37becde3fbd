// Package blob stores uploaded attachments on disk and hands back durable,
// fetchable references for them. It is the upload boundary only: the
// lifecycle controller always resolves a reference to bytes and inlines them
// before anything is persisted.
package blob

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store keeps uploaded files under dir. File names carry a random suffix so
// repeated uploads of the same filename never collide.
type Store struct {
	dir string
}

// NewStore creates the blob directory under baseDir if needed.
func NewStore(baseDir string) (*Store, error) {
	dir := filepath.Join(baseDir, "blobs")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	_ = os.Chmod(dir, 0700)
	return &Store{dir: dir}, nil
}

// Put stores data and returns the blob name usable with Get and as a
// "/blobs/<name>" URL.
func (s *Store) Put(filename string, data []byte) (string, error) {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}

	name := sanitize(filename)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		base = "upload"
	}
	blobName := fmt.Sprintf("%s-%s%s", base, hex.EncodeToString(suffix), ext)

	if err := os.WriteFile(filepath.Join(s.dir, blobName), data, 0600); err != nil {
		return "", err
	}
	return blobName, nil
}

// Get reads a stored blob back.
func (s *Store) Get(name string) ([]byte, error) {
	clean := sanitize(name)
	if clean != name || clean == "" {
		return nil, fmt.Errorf("invalid blob name %q", name)
	}
	return os.ReadFile(filepath.Join(s.dir, clean))
}

// sanitize strips any path components from a client-supplied filename.
func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
