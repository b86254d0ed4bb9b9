package resolver

import (
	"testing"

	"github.com/dmitrijs2005/chatmedia/internal/attachment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDescriptor(t *testing.T, content map[string]any) *attachment.Descriptor {
	t.Helper()
	d, err := attachment.Build(attachment.Event{
		ID:      "$e",
		RoomID:  "!r:server",
		Content: content,
	})
	require.NoError(t, err)
	return d
}

func TestHomeserverTranslator_Resolve(t *testing.T) {
	tr := NewHomeserverTranslator("https://hs.example/")

	u, err := tr.Resolve(attachment.RemoteAddress("mxc://server/abc"))
	require.NoError(t, err)
	assert.Equal(t, "https://hs.example/_matrix/media/v3/download/server/abc", u)

	// pending uploads pass through untranslated
	u, err = tr.Resolve(attachment.ParseContentAddress("upload-42"))
	require.NoError(t, err)
	assert.Equal(t, "upload-42", u)

	_, err = tr.Resolve(attachment.RemoteAddress("http://not-mxc"))
	assert.Error(t, err)
}

func TestHomeserverTranslator_ResolveThumbnail(t *testing.T) {
	tr := NewHomeserverTranslator("https://hs.example")

	u, err := tr.ResolveThumbnail(attachment.RemoteAddress("mxc://server/abc"), 320, 240, ThumbnailMethodScale)
	require.NoError(t, err)
	assert.Equal(t, "https://hs.example/_matrix/media/v3/thumbnail/server/abc?height=240&method=scale&width=320", u)
}

func TestCacheFilePath_Deterministic(t *testing.T) {
	a := CacheFilePath("/cache", "https://hs/x", "image/jpeg", "!r")
	b := CacheFilePath("/cache", "https://hs/x", "image/jpeg", "!r")
	assert.Equal(t, a, b)
	assert.Contains(t, a, ".jpg")

	// every component participates in the key
	assert.NotEqual(t, a, CacheFilePath("/cache", "https://hs/y", "image/jpeg", "!r"))
	assert.NotEqual(t, a, CacheFilePath("/cache", "https://hs/x", "image/png", "!r"))
	assert.NotEqual(t, a, CacheFilePath("/cache", "https://hs/x", "image/jpeg", "!other"))
}

func TestResolve_FillsDerivedFields(t *testing.T) {
	r := New(NewHomeserverTranslator("https://hs.example"), "/cache", 320, 240)

	d := buildDescriptor(t, map[string]any{
		"msgtype": "m.image",
		"body":    "p.png",
		"url":     "mxc://server/img",
		"info":    map[string]any{"mimetype": "image/png"},
	})
	require.NoError(t, r.Resolve(d))

	assert.Equal(t, "https://hs.example/_matrix/media/v3/download/server/img", d.FetchURL)
	assert.NotEmpty(t, d.CacheFilePath)
	// priority 3: plaintext image gets a server-scaled thumbnail
	assert.Contains(t, d.ThumbnailURL, "/_matrix/media/v3/thumbnail/server/img")
	assert.Contains(t, d.ThumbnailURL, "method=scale")
}

func TestResolveThumbnail_EncryptedBeatsServerThumbnail(t *testing.T) {
	r := New(NewHomeserverTranslator("https://hs.example"), "/cache", 320, 240)

	content := map[string]any{
		"msgtype": "m.video",
		"body":    "v.mp4",
		"info": map[string]any{
			"mimetype":       "video/mp4",
			"thumbnail_url":  "mxc://server/plain-thumb",
			"thumbnail_info": map[string]any{"mimetype": "image/jpeg"},
			"thumbnail_file": map[string]any{
				"url":    "mxc://server/enc-thumb",
				"key":    map[string]any{"k": "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
				"iv":     "AAAAAAAAAAAAAAAAAAAAAA",
				"hashes": map[string]any{"sha256": "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
			},
		},
		"file": map[string]any{
			"url":    "mxc://server/enc-content",
			"key":    map[string]any{"k": "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
			"iv":     "AAAAAAAAAAAAAAAAAAAAAA",
			"hashes": map[string]any{"sha256": "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
		},
	}

	d := buildDescriptor(t, content)
	require.NoError(t, r.Resolve(d))

	// priority 1 beats priority 2: the encrypted address wins and is the
	// raw content address, never a repository URL
	assert.Equal(t, "mxc://server/enc-thumb", d.ThumbnailURL)
	assert.Equal(t, "image/jpeg", d.ThumbnailMimeType)
}

func TestResolveThumbnail_VideoPlainThumbnailURL(t *testing.T) {
	r := New(NewHomeserverTranslator("https://hs.example"), "/cache", 320, 240)

	d := buildDescriptor(t, map[string]any{
		"msgtype": "m.video",
		"body":    "v.mp4",
		"url":     "mxc://server/vid",
		"info": map[string]any{
			"mimetype":      "video/mp4",
			"thumbnail_url": "mxc://server/thumb",
		},
	})
	require.NoError(t, r.Resolve(d))

	// priority 2: resolved absolute URL, no scaling parameters
	assert.Equal(t, "https://hs.example/_matrix/media/v3/download/server/thumb", d.ThumbnailURL)
}

func TestResolveThumbnail_PendingUploadHasNone(t *testing.T) {
	r := New(NewHomeserverTranslator("https://hs.example"), "/cache", 320, 240)

	d := buildDescriptor(t, map[string]any{
		"msgtype": "m.image",
		"body":    "p.png",
		"url":     "upload-77",
	})
	require.NoError(t, r.Resolve(d))

	assert.Equal(t, "upload-77", d.FetchURL)
	assert.Empty(t, d.ThumbnailURL)
}
