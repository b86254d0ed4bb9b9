package filex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionForMime(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/jpeg", ".jpg"},
		{"image/png", ".png"},
		{"video/mp4", ".mp4"},
		{"image/jpeg; charset=binary", ".jpg"},
		{"", ".bin"},
		{"application/x-totally-unknown", ".bin"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtensionForMime(tt.mime), "mime %q", tt.mime)
	}
}

func TestTempFileName_Unique(t *testing.T) {
	dir := t.TempDir()
	a := TempFileName(dir, "image/png")
	b := TempFileName(dir, "image/png")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.Equal(t, dir, filepath.Dir(a))
}

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "f.bin")

	require.NoError(t, AtomicWrite(path, []byte("hello")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	// no .part left behind
	_, err = os.Stat(path + ".part")
	assert.True(t, os.IsNotExist(err))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x")
	assert.False(t, Exists(path))
	require.NoError(t, os.WriteFile(path, []byte("1"), 0o660))
	assert.True(t, Exists(path))
	assert.False(t, Exists(dir)) // directories don't count
}
