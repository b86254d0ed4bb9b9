package attachment

import (
	"fmt"

	"github.com/dmitrijs2005/chatmedia/internal/common"
)

// Event is the slice of a chat event the builder needs. Content is the raw
// decoded event content; for sticker events Type decides the kind since
// stickers carry no msgtype.
type Event struct {
	ID        string
	RoomID    string
	Type      string
	SentState string
	Content   map[string]any
}

// Descriptor is a typed, immutable view of one attachment. The Fetch/Cache/
// Thumbnail fields are derived eagerly by resolver.Resolver right after
// Build and do not change afterwards. FetchURL may still point at a
// pending-upload placeholder until the sender finishes uploading; that is a
// producer-side transient, not something this layer resolves.
type Descriptor struct {
	Kind             Kind
	EventID          string
	RoomID           string
	SentState        string
	OriginalFileName string

	ContentInfo   map[string]any
	ThumbnailInfo map[string]any

	ContentEncryption   *EncryptionDescriptor
	ThumbnailEncryption *EncryptionDescriptor

	ContentAddress ContentAddress

	// Derived by the resolver.
	FetchURL          string
	CacheFilePath     string
	ThumbnailURL      string
	ThumbnailMimeType string
}

// IsEncrypted reports whether the content channel is end-to-end encrypted.
func (d *Descriptor) IsEncrypted() bool { return d.ContentEncryption != nil }

// ContentMimeType returns the declared MIME type of the content, preferring
// the encryption descriptor's over the info map's.
func (d *Descriptor) ContentMimeType() string {
	if d.ContentEncryption != nil && d.ContentEncryption.MimeType != "" {
		return d.ContentEncryption.MimeType
	}
	if s, ok := d.ContentInfo["mimetype"].(string); ok {
		return s
	}
	return ""
}

// Build parses event content into a Descriptor. Unknown or unsupported
// message kinds yield common.ErrUnsupportedAttachment and no descriptor.
func Build(ev Event) (*Descriptor, error) {
	if ev.Content == nil {
		return nil, fmt.Errorf("%w: empty event content", common.ErrUnsupportedAttachment)
	}

	msgType, _ := ev.Content["msgtype"].(string)
	if ev.Type == MsgTypeSticker {
		msgType = MsgTypeSticker
	}
	kind, err := KindForMsgType(msgType)
	if err != nil {
		return nil, err
	}

	d := &Descriptor{
		Kind:      kind,
		EventID:   ev.ID,
		RoomID:    ev.RoomID,
		SentState: ev.SentState,
	}

	if body, ok := ev.Content["body"].(string); ok {
		d.OriginalFileName = body
	}
	if name, ok := ev.Content["filename"].(string); ok && name != "" {
		d.OriginalFileName = name
	}

	if info, ok := ev.Content["info"].(map[string]any); ok {
		d.ContentInfo = info
		if ti, ok := info["thumbnail_info"].(map[string]any); ok {
			d.ThumbnailInfo = ti
		}
		if tf, ok := info["thumbnail_file"].(map[string]any); ok {
			enc, err := ParseEncryptionDescriptor(tf)
			if err != nil {
				return nil, err
			}
			d.ThumbnailEncryption = enc
		}
	}

	// Encrypted content carries its address inside the file object; the
	// plaintext url field is ignored entirely in that case.
	if file, ok := ev.Content["file"].(map[string]any); ok {
		enc, err := ParseEncryptionDescriptor(file)
		if err != nil {
			return nil, err
		}
		d.ContentEncryption = enc
		d.ContentAddress = enc.Address
	} else if rawURL, ok := ev.Content["url"].(string); ok && rawURL != "" {
		d.ContentAddress = ParseContentAddress(rawURL)
	} else {
		return nil, fmt.Errorf("%w: no content source", common.ErrResolutionFailure)
	}

	// Thumbnail MIME resolution order: encrypted thumbnail descriptor,
	// then thumbnail_info, otherwise absent.
	if d.ThumbnailEncryption != nil && d.ThumbnailEncryption.MimeType != "" {
		d.ThumbnailMimeType = d.ThumbnailEncryption.MimeType
	} else if d.ThumbnailInfo != nil {
		if s, ok := d.ThumbnailInfo["mimetype"].(string); ok {
			d.ThumbnailMimeType = s
		}
	}

	return d, nil
}
