package server

import (
	"os"
	"path/filepath"
)

// BlobStore is where fetched media is kept so it can be re-served
// without another round-trip to the platform. Keys are slash-separated
// relative paths.
type BlobStore interface {
	Save(key string, content []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
}

// LocalBlobStore implements BlobStore using the local filesystem.
type LocalBlobStore struct {
	BaseDir string
}

func NewLocalBlobStore(baseDir string) *LocalBlobStore {
	return &LocalBlobStore{BaseDir: baseDir}
}

func (s *LocalBlobStore) Save(key string, content []byte) error {
	filePath := filepath.Join(s.BaseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath, content, 0644)
}

func (s *LocalBlobStore) Get(key string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.BaseDir, filepath.FromSlash(key)))
}

func (s *LocalBlobStore) Delete(key string) error {
	if err := os.Remove(filepath.Join(s.BaseDir, filepath.FromSlash(key))); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
