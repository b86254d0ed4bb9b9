// Package cachex provides the cache stores the media core reads and writes:
// a durable on-disk store keyed by absolute path, and a bounded in-memory
// LRU for decrypted thumbnails.
package cachex

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/chatmedia/internal/common"
	"github.com/dmitrijs2005/chatmedia/internal/filex"
)

// Store is the durable cache collaborator contract.
type Store interface {
	Exists(path string) bool
	Get(path string) ([]byte, error)
	Put(path string, data []byte) error
}

// DiskStore stores entries as plain files. Writes go to a private sibling
// and are renamed into place, so a path is either absent or complete.
type DiskStore struct{}

func NewDiskStore() *DiskStore { return &DiskStore{} }

func (s *DiskStore) Exists(path string) bool {
	return filex.Exists(path)
}

func (s *DiskStore) Get(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrorNotFound, path)
		}
		return nil, fmt.Errorf("read cache entry: %w", err)
	}
	return data, nil
}

func (s *DiskStore) Put(path string, data []byte) error {
	return filex.AtomicWrite(path, data)
}
