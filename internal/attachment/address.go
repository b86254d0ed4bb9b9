package attachment

import "strings"

// PendingUploadPrefix is the reserved marker the sender-side code stores in
// the url field while the upload is still running. Addresses carrying it
// have no repository-side identity yet and must never be translated.
const PendingUploadPrefix = "upload-"

// ContentAddress is an opaque reference to media: either a remote
// repository address (e.g. "mxc://server/id") or a local pending-upload
// identifier. Branching on the variant replaces string-prefix sniffing at
// every resolution site.
type ContentAddress struct {
	remote  string
	localID string
}

// ParseContentAddress classifies a raw url-field value.
func ParseContentAddress(raw string) ContentAddress {
	if strings.HasPrefix(raw, PendingUploadPrefix) {
		return ContentAddress{localID: raw}
	}
	return ContentAddress{remote: raw}
}

// RemoteAddress builds an address known to be repository-side.
func RemoteAddress(url string) ContentAddress {
	return ContentAddress{remote: url}
}

// IsZero reports whether the address is empty.
func (a ContentAddress) IsZero() bool { return a.remote == "" && a.localID == "" }

// IsPendingUpload reports whether the sender is still uploading this content.
func (a ContentAddress) IsPendingUpload() bool { return a.localID != "" }

// Remote returns the repository address, empty for pending uploads.
func (a ContentAddress) Remote() string { return a.remote }

// String returns the raw wire form of the address.
func (a ContentAddress) String() string {
	if a.localID != "" {
		return a.localID
	}
	return a.remote
}
