package attachment

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/chatmedia/internal/common"
)

// EncryptionDescriptor carries everything needed to decrypt one encrypted
// content or thumbnail stream: the content address of the ciphertext, its
// MIME type, the AES key, the CTR initialization vector and the SHA-256
// digest of the ciphertext. Immutable once parsed.
type EncryptionDescriptor struct {
	Address  ContentAddress
	MimeType string
	Key      []byte
	IV       []byte
	SHA256   []byte
}

// ParseEncryptionDescriptor builds a descriptor from a `file` (or
// `thumbnail_file`) sub-object of event content. The key sits in a JWK
// under "key" (field "k", unpadded base64url); iv and hashes.sha256 use
// unpadded standard base64.
func ParseEncryptionDescriptor(m map[string]any) (*EncryptionDescriptor, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil file object", common.ErrResolutionFailure)
	}

	rawURL, _ := m["url"].(string)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: encrypted file without url", common.ErrResolutionFailure)
	}

	jwk, _ := m["key"].(map[string]any)
	k, _ := jwk["k"].(string)
	key, err := decodeBase64URL(k)
	if err != nil || len(key) == 0 {
		return nil, fmt.Errorf("%w: bad key material", common.ErrDecryptionFailure)
	}

	ivRaw, _ := m["iv"].(string)
	iv, err := decodeBase64(ivRaw)
	if err != nil || len(iv) == 0 {
		return nil, fmt.Errorf("%w: bad iv", common.ErrDecryptionFailure)
	}

	hashes, _ := m["hashes"].(map[string]any)
	shaRaw, _ := hashes["sha256"].(string)
	sha, err := decodeBase64(shaRaw)
	if err != nil || len(sha) == 0 {
		return nil, fmt.Errorf("%w: missing sha256 digest", common.ErrDecryptionFailure)
	}

	mimeType, _ := m["mimetype"].(string)

	return &EncryptionDescriptor{
		Address:  ParseContentAddress(rawURL),
		MimeType: mimeType,
		Key:      key,
		IV:       iv,
		SHA256:   sha,
	}, nil
}

// decodeBase64 accepts padded and unpadded standard base64.
func decodeBase64(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty value")
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// decodeBase64URL accepts padded and unpadded base64url (JWK "k" form).
func decodeBase64URL(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty value")
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
