// Package attachment parses chat-event metadata into typed attachment
// descriptors: kind, content/thumbnail info, encryption material and the
// content address to fetch bytes from.
package attachment

import (
	"fmt"

	"github.com/dmitrijs2005/chatmedia/internal/common"
)

// Kind classifies an attachment by the media it carries.
type Kind int

const (
	KindImage Kind = iota
	KindAudio
	KindVideo
	KindFile
	KindSticker
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	case KindFile:
		return "file"
	case KindSticker:
		return "sticker"
	default:
		return "unknown"
	}
}

// Message types on the wire.
const (
	MsgTypeImage    = "m.image"
	MsgTypeAudio    = "m.audio"
	MsgTypeVideo    = "m.video"
	MsgTypeFile     = "m.file"
	MsgTypeSticker  = "m.sticker"
	MsgTypeLocation = "m.location"
)

// KindForMsgType maps a message-type string to a Kind. Locations and any
// unknown types return common.ErrUnsupportedAttachment; that is a typed
// "cannot represent" result, never a panic.
func KindForMsgType(msgType string) (Kind, error) {
	switch msgType {
	case MsgTypeImage:
		return KindImage, nil
	case MsgTypeAudio:
		return KindAudio, nil
	case MsgTypeVideo:
		return KindVideo, nil
	case MsgTypeFile:
		return KindFile, nil
	case MsgTypeSticker:
		return KindSticker, nil
	case MsgTypeLocation:
		return 0, fmt.Errorf("%w: locations are not representable", common.ErrUnsupportedAttachment)
	default:
		return 0, fmt.Errorf("%w: message type %q", common.ErrUnsupportedAttachment, msgType)
	}
}
