// Package media is the consumption layer over cached attachment bytes:
// verified decryption to memory or file, thumbnail preparation, ephemeral
// export, and the attachment service tying the stages together.
package media

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/chatmedia/internal/attachment"
	"github.com/dmitrijs2005/chatmedia/internal/cachex"
	"github.com/dmitrijs2005/chatmedia/internal/common"
	"github.com/dmitrijs2005/chatmedia/internal/cryptox"
	"github.com/dmitrijs2005/chatmedia/internal/filex"
	"github.com/dmitrijs2005/chatmedia/internal/logging"
)

// Pipeline turns cached ciphertext into plaintext. Both output modes consume
// the same verified streaming transform; no partial plaintext survives a
// failed digest check.
type Pipeline struct {
	store  cachex.Store
	thumbs *cachex.MemoryCache
	log    logging.Logger
}

func NewPipeline(store cachex.Store, thumbs *cachex.MemoryCache, log logging.Logger) *Pipeline {
	return &Pipeline{store: store, thumbs: thumbs, log: log}
}

// DecryptToMemory reads the ciphertext cached at path and returns the
// verified plaintext.
func (p *Pipeline) DecryptToMemory(path string, enc *attachment.EncryptionDescriptor) ([]byte, error) {
	ciphertext, err := p.store.Get(path)
	if err != nil {
		return nil, err
	}

	r, err := cryptox.NewDecryptReader(bytes.NewReader(ciphertext), enc.Key, enc.IV)
	if err != nil {
		return nil, err
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailure, err)
	}
	if err := r.Verify(enc.SHA256); err != nil {
		return nil, err
	}
	return plaintext, nil
}

// DecryptThumbnail is DecryptToMemory with a secondary in-memory cache keyed
// by the ciphertext cache path, so repeat renders skip the transform.
func (p *Pipeline) DecryptThumbnail(path string, enc *attachment.EncryptionDescriptor) ([]byte, error) {
	if data, ok := p.thumbs.Get(path); ok {
		return data, nil
	}
	data, err := p.DecryptToMemory(path, enc)
	if err != nil {
		return nil, err
	}
	p.thumbs.Put(path, data)
	return data, nil
}

// ThumbnailFromCache returns a previously prepared thumbnail for path.
func (p *Pipeline) ThumbnailFromCache(path string) ([]byte, bool) {
	return p.thumbs.Get(path)
}

// StoreThumbnail caches prepared thumbnail bytes for path.
func (p *Pipeline) StoreThumbnail(path string, data []byte) {
	p.thumbs.Put(path, data)
}

// PurgeThumbnails drops the decrypted thumbnail cache.
func (p *Pipeline) PurgeThumbnails() {
	p.thumbs.Purge()
}

// DecryptToFile streams the ciphertext at srcPath into dstPath. The
// plaintext is written to a private sibling and only renamed into place
// after the digest verifies, so dstPath never holds unverified bytes.
func (p *Pipeline) DecryptToFile(srcPath, dstPath string, enc *attachment.EncryptionDescriptor) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open ciphertext: %w", err)
	}
	defer src.Close()

	r, err := cryptox.NewDecryptReader(src, enc.Key, enc.IV)
	if err != nil {
		return err
	}

	if err := filex.EnsureDir(filepath.Dir(dstPath)); err != nil {
		return err
	}
	part := dstPath + ".part"
	dst, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("create plaintext file: %w", err)
	}

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(part)
		return fmt.Errorf("%w: %v", common.ErrDecryptionFailure, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(part)
		return err
	}
	if err := r.Verify(enc.SHA256); err != nil {
		os.Remove(part)
		return err
	}
	return os.Rename(part, dstPath)
}
