// Package resolver derives fetchable URLs and deterministic cache locations
// from attachment descriptors.
package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/chatmedia/internal/attachment"
	"github.com/dmitrijs2005/chatmedia/internal/common"
	"github.com/dmitrijs2005/chatmedia/internal/filex"
)

// ThumbnailMethodScale asks the repository for a scale-to-fit thumbnail.
const ThumbnailMethodScale = "scale"

// Translator converts opaque content addresses into absolute URLs.
// Pending-upload addresses pass through untranslated.
type Translator interface {
	Resolve(addr attachment.ContentAddress) (string, error)
	ResolveThumbnail(addr attachment.ContentAddress, width, height int, method string) (string, error)
}

// HomeserverTranslator maps mxc-style addresses onto the media endpoints of
// a single homeserver.
type HomeserverTranslator struct {
	BaseURL string
}

func NewHomeserverTranslator(baseURL string) *HomeserverTranslator {
	return &HomeserverTranslator{BaseURL: strings.TrimRight(baseURL, "/")}
}

// splitMXC breaks "mxc://server/mediaID" into its two parts.
func splitMXC(raw string) (server, mediaID string, err error) {
	rest, ok := strings.CutPrefix(raw, "mxc://")
	if !ok {
		return "", "", fmt.Errorf("%w: not a content address: %q", common.ErrResolutionFailure, raw)
	}
	server, mediaID, ok = strings.Cut(rest, "/")
	if !ok || server == "" || mediaID == "" {
		return "", "", fmt.Errorf("%w: malformed content address: %q", common.ErrResolutionFailure, raw)
	}
	return server, mediaID, nil
}

func (t *HomeserverTranslator) Resolve(addr attachment.ContentAddress) (string, error) {
	if addr.IsPendingUpload() {
		return addr.String(), nil
	}
	server, mediaID, err := splitMXC(addr.Remote())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/_matrix/media/v3/download/%s/%s", t.BaseURL, server, mediaID), nil
}

func (t *HomeserverTranslator) ResolveThumbnail(addr attachment.ContentAddress, width, height int, method string) (string, error) {
	if addr.IsPendingUpload() {
		return addr.String(), nil
	}
	server, mediaID, err := splitMXC(addr.Remote())
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("width", fmt.Sprint(width))
	q.Set("height", fmt.Sprint(height))
	q.Set("method", method)
	return fmt.Sprintf("%s/_matrix/media/v3/thumbnail/%s/%s?%s", t.BaseURL, server, mediaID, q.Encode()), nil
}

// CacheFilePath is the dedup key of the whole subsystem: a pure function of
// (url, mimeType, roomID). Identical inputs always produce the same path,
// across calls and process restarts.
func CacheFilePath(cacheDir, url, mimeType, roomID string) string {
	sum := sha256.Sum256([]byte(url + "\x00" + mimeType + "\x00" + roomID))
	return filepath.Join(cacheDir, hex.EncodeToString(sum[:])+filex.ExtensionForMime(mimeType))
}

// Resolver computes the derived fields of a descriptor eagerly.
type Resolver struct {
	translator Translator
	cacheDir   string

	thumbWidth  int
	thumbHeight int
}

func New(translator Translator, cacheDir string, thumbWidth, thumbHeight int) *Resolver {
	return &Resolver{
		translator:  translator,
		cacheDir:    cacheDir,
		thumbWidth:  thumbWidth,
		thumbHeight: thumbHeight,
	}
}

// FetchURL translates any content address into a downloadable URL. Used for
// encrypted thumbnails, whose resolved thumbnail field carries the raw
// address rather than a repository URL.
func (r *Resolver) FetchURL(addr attachment.ContentAddress) (string, error) {
	return r.translator.Resolve(addr)
}

// CachePath derives the cache location for any (url, mime, room) triple.
func (r *Resolver) CachePath(url, mimeType, roomID string) string {
	return CacheFilePath(r.cacheDir, url, mimeType, roomID)
}

// Resolve fills FetchURL, CacheFilePath, ThumbnailURL on d. Called once,
// right after attachment.Build.
func (r *Resolver) Resolve(d *attachment.Descriptor) error {
	fetchURL, err := r.translator.Resolve(d.ContentAddress)
	if err != nil {
		return err
	}
	d.FetchURL = fetchURL
	d.CacheFilePath = r.CachePath(fetchURL, d.ContentMimeType(), d.RoomID)

	thumbURL, err := r.resolveThumbnail(d)
	if err != nil {
		return err
	}
	d.ThumbnailURL = thumbURL
	return nil
}

// resolveThumbnail applies the priority chain; first match wins.
//
//  1. Encrypted thumbnail: its content address as-is; the caller fetches the
//     ciphertext and decrypts, so a repository-scaled URL would be useless.
//  2. Video/sticker with a plaintext thumbnail_url in the info map: resolve
//     to an absolute URL, no server-side scaling.
//  3. Unencrypted, non-pending content: ask the repository for a
//     scale-to-fit thumbnail of the content itself.
//  4. Nothing; for images the caller may fall back to full content.
func (r *Resolver) resolveThumbnail(d *attachment.Descriptor) (string, error) {
	if d.ThumbnailEncryption != nil {
		return d.ThumbnailEncryption.Address.String(), nil
	}

	if d.Kind == attachment.KindVideo || d.Kind == attachment.KindSticker {
		if raw, ok := d.ContentInfo["thumbnail_url"].(string); ok && raw != "" {
			return r.translator.Resolve(attachment.ParseContentAddress(raw))
		}
	}

	if !d.IsEncrypted() && !d.ContentAddress.IsPendingUpload() {
		return r.translator.ResolveThumbnail(d.ContentAddress, r.thumbWidth, r.thumbHeight, ThumbnailMethodScale)
	}

	return "", nil
}
