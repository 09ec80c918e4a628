// Package storage writes rendered documents and gallery photos under a
// provider-scoped directory tree. Writes go to a temp file first and are
// renamed into place so a concurrent reader never sees a partial binary.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store is the filesystem interface the renderer, signature and gallery
// components write through.
type Store interface {
	// Write persists content at the relative path and returns that path.
	Write(relPath string, content []byte) (string, error)
	Read(relPath string) ([]byte, error)
	Remove(relPath string) error
	Exists(relPath string) bool
}

// FileStore is a Store rooted at a single directory.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed and returns a store
// rooted there.
func NewFileStore(root string) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FileStore{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(relPath)
	if cleaned == "." || cleaned == ".." || filepath.IsAbs(cleaned) || len(cleaned) >= 3 && cleaned[:3] == ".."+string(filepath.Separator) {
		return "", fmt.Errorf("path escapes storage root: %q", relPath)
	}
	return filepath.Join(s.root, cleaned), nil
}

// Write stores content atomically: the bytes land in a temp file in the
// target directory, then a rename swaps it into place.
func (s *FileStore) Write(relPath string, content []byte) (string, error) {
	target, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename into place: %w", err)
	}
	return relPath, nil
}

func (s *FileStore) Read(relPath string) ([]byte, error) {
	target, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return content, nil
}

func (s *FileStore) Remove(relPath string) error {
	target, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *FileStore) Exists(relPath string) bool {
	target, err := s.resolve(relPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(target)
	return err == nil
}

// ContractPath is the relative location of a rendered contract version.
func ContractPath(providerID, contractID uuid.UUID, version int) string {
	return filepath.Join(providerID.String(), "contracts", contractID.String(), fmt.Sprintf("contract_v%d.pdf", version))
}

// SignedContractPath is the relative location of the attestation render.
func SignedContractPath(providerID, contractID uuid.UUID) string {
	return filepath.Join(providerID.String(), "contracts", contractID.String(), "contract_signed.pdf")
}

// PhotoPath is the relative location of an uploaded gallery photo.
func PhotoPath(providerID, galleryID, photoID uuid.UUID, ext string) string {
	return filepath.Join(providerID.String(), "galleries", galleryID.String(), photoID.String()+ext)
}

var _ Store = (*FileStore)(nil)
