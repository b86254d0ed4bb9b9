package cachex

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryCache is a bounded byte cache keyed by cache file path. It holds
// decrypted thumbnails so repeat renders don't re-run the decrypt pipeline.
type MemoryCache struct {
	c *lru.Cache[string, []byte]
}

func NewMemoryCache(entries int) (*MemoryCache, error) {
	c, err := lru.New[string, []byte](entries)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{c: c}, nil
}

func (m *MemoryCache) Get(path string) ([]byte, bool) {
	return m.c.Get(path)
}

func (m *MemoryCache) Put(path string, data []byte) {
	m.c.Add(path, data)
}

// Purge drops every entry; used on teardown.
func (m *MemoryCache) Purge() {
	m.c.Purge()
}
