package cryptox

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"io"
	"testing"

	"github.com/dmitrijs2005/chatmedia/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	plaintext := bytes.Repeat([]byte("attachment bytes "), 1000)

	ciphertext, iv, digest, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, ciphertext)

	r, err := NewDecryptReader(bytes.NewReader(ciphertext), key, iv)
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Verify(digest))

	assert.Equal(t, plaintext, got)
}

func TestDecrypt_WrongKeyFailsVerify(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	wrongKey, err := GenerateKey()
	require.NoError(t, err)

	ciphertext, iv, digest, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	// A wrong key still "decrypts" in CTR mode; corrupt the ciphertext so
	// the digest check is what must catch it.
	ciphertext[0] ^= 0xff

	r, err := NewDecryptReader(bytes.NewReader(ciphertext), wrongKey, iv)
	require.NoError(t, err)
	_, err = io.ReadAll(r)
	require.NoError(t, err)

	err = r.Verify(digest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDecryptionFailure))
}

func TestDecrypt_WrongDigestFails(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	ciphertext, iv, _, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	bogus := sha256.Sum256([]byte("something else"))

	r, err := NewDecryptReader(bytes.NewReader(ciphertext), key, iv)
	require.NoError(t, err)
	_, err = io.ReadAll(r)
	require.NoError(t, err)

	err = r.Verify(bogus[:])
	assert.True(t, errors.Is(err, common.ErrDecryptionFailure))
}

func TestNewDecryptReader_BadKeyMaterial(t *testing.T) {
	_, err := NewDecryptReader(bytes.NewReader(nil), []byte("short"), make([]byte, IVSize))
	assert.True(t, errors.Is(err, common.ErrDecryptionFailure))

	_, err = NewDecryptReader(bytes.NewReader(nil), make([]byte, KeySize), []byte("short"))
	assert.True(t, errors.Is(err, common.ErrDecryptionFailure))
}
