// Package filex contains filesystem helpers: directory creation, atomic
// writes, unique temp-file naming and MIME-type to extension lookup.
package filex

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Extensions preferred over whatever mime.ExtensionsByType returns first.
// The stdlib answer depends on the host mime database and is unstable for
// common types (e.g. "image/jpeg" may yield ".jpe").
var preferredExtensions = map[string]string{
	"image/jpeg":       ".jpg",
	"image/png":        ".png",
	"image/gif":        ".gif",
	"image/webp":       ".webp",
	"video/mp4":        ".mp4",
	"audio/mpeg":       ".mp3",
	"audio/ogg":        ".ogg",
	"application/pdf":  ".pdf",
	"text/plain":       ".txt",
	"application/json": ".json",
}

// ExtensionForMime returns a file extension (with leading dot) for the given
// MIME type, or ".bin" when the type is unknown or empty.
func ExtensionForMime(mimeType string) string {
	if mimeType == "" {
		return ".bin"
	}
	base := strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	if ext, ok := preferredExtensions[base]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(base)
	if err != nil || len(exts) == 0 {
		return ".bin"
	}
	return exts[0]
}

// EnsureDir creates dir (and parents) if missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// TempFileName returns a collision-resistant path inside dir with an
// extension matching mimeType. The file itself is not created.
func TempFileName(dir, mimeType string) string {
	return filepath.Join(dir, uuid.NewString()+ExtensionForMime(mimeType))
}

// AtomicWrite writes data to a private sibling file and renames it into
// place, so path is never visible half-written.
func AtomicWrite(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o660); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// Exists reports whether path refers to an existing regular file.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
