// Package cryptox implements the verified streaming decrypt primitive for
// end-to-end encrypted attachments.
//
// Attachment content is encrypted with AES-256 in CTR mode; integrity is a
// SHA-256 digest computed over the ciphertext. Decryption therefore streams
// the ciphertext once, hashing and transforming simultaneously, and the
// digest is checked at end of stream. Plaintext produced before the check is
// only ever handed out by callers after Verify succeeds.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"hash"
	"io"

	"github.com/dmitrijs2005/chatmedia/internal/common"
)

const (
	KeySize = 32
	IVSize  = aes.BlockSize
)

// DecryptReader decrypts an AES-CTR ciphertext stream while hashing the
// ciphertext it consumes. After io.EOF, Verify must be called with the
// expected digest before the plaintext is trusted.
type DecryptReader struct {
	src    io.Reader
	stream cipher.Stream
	digest hash.Hash
}

// NewDecryptReader wraps src with an AES-CTR decrypting reader.
//
// The key must be KeySize bytes and iv IVSize bytes; anything else yields
// common.ErrDecryptionFailure (malformed descriptor, not an I/O problem).
func NewDecryptReader(src io.Reader, key, iv []byte) (*DecryptReader, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key length %d", common.ErrDecryptionFailure, len(key))
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: iv length %d", common.ErrDecryptionFailure, len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailure, err)
	}
	return &DecryptReader{
		src:    src,
		stream: cipher.NewCTR(block, iv),
		digest: sha256.New(),
	}, nil
}

// Read consumes ciphertext from the source, hashes it, and returns the
// decrypted bytes in place.
func (r *DecryptReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		r.digest.Write(p[:n])
		r.stream.XORKeyStream(p[:n], p[:n])
	}
	return n, err
}

// Verify compares the digest of all ciphertext read so far against want.
// Call after the stream is fully consumed.
func (r *DecryptReader) Verify(want []byte) error {
	got := r.digest.Sum(nil)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return fmt.Errorf("%w: ciphertext digest mismatch", common.ErrDecryptionFailure)
	}
	return nil
}

// Encrypt is the pairing encryptor: AES-CTR over plaintext with a fresh
// random IV, returning ciphertext, the IV and the SHA-256 digest of the
// ciphertext. Used when sending and by round-trip tests.
func Encrypt(plaintext, key []byte) (ciphertext, iv, digest []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, nil, fmt.Errorf("invalid key length %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, nil, err
	}

	// CTR IV convention: 8 random bytes, low 8 bytes start at zero.
	iv = make([]byte, IVSize)
	if _, err := rand.Read(iv[:8]); err != nil {
		return nil, nil, nil, err
	}

	ciphertext = make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, plaintext)

	sum := sha256.Sum256(ciphertext)
	return ciphertext, iv, sum[:], nil
}

// GenerateKey returns a fresh random content key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
