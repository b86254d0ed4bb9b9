package cachex

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/chatmedia/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_PutGetExists(t *testing.T) {
	s := NewDiskStore()
	path := filepath.Join(t.TempDir(), "entry.bin")

	assert.False(t, s.Exists(path))

	_, err := s.Get(path)
	assert.True(t, errors.Is(err, common.ErrorNotFound))

	require.NoError(t, s.Put(path, []byte("payload")))
	assert.True(t, s.Exists(path))

	data, err := s.Get(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestMemoryCache_Evicts(t *testing.T) {
	m, err := NewMemoryCache(2)
	require.NoError(t, err)

	m.Put("a", []byte("1"))
	m.Put("b", []byte("2"))
	m.Put("c", []byte("3")) // evicts "a"

	_, ok := m.Get("a")
	assert.False(t, ok)
	v, ok := m.Get("c")
	require.True(t, ok)
	assert.Equal(t, []byte("3"), v)

	m.Purge()
	_, ok = m.Get("c")
	assert.False(t, ok)
}
