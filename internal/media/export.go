package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/chatmedia/internal/attachment"
	"github.com/dmitrijs2005/chatmedia/internal/common"
	"github.com/dmitrijs2005/chatmedia/internal/filex"
	"github.com/dmitrijs2005/chatmedia/internal/logging"
)

// ExportManager materializes attachments as plain files for share/export
// flows and guarantees removal of everything it created. The encrypted path
// never exposes the ciphertext cache; the plaintext path reuses the cache
// file unless the displayed filename needs preserving.
type ExportManager struct {
	pipeline *Pipeline
	tempDir  string
	log      logging.Logger

	mu      sync.Mutex
	created map[string][]string // event ID -> files owned by that export
}

func NewExportManager(pipeline *Pipeline, tempDir string, log logging.Logger) *ExportManager {
	return &ExportManager{
		pipeline: pipeline,
		tempDir:  tempDir,
		log:      log,
		created:  make(map[string][]string),
	}
}

// Materialize returns a plaintext file path for an attachment whose content
// is already cached at d.CacheFilePath. Paths it creates live until
// ShareEnded(d.EventID) or RemoveAll.
func (m *ExportManager) Materialize(d *attachment.Descriptor) (string, error) {
	if d.IsEncrypted() {
		dst := filex.TempFileName(m.tempDir, d.ContentMimeType())
		if err := m.pipeline.DecryptToFile(d.CacheFilePath, dst, d.ContentEncryption); err != nil {
			return "", err
		}
		m.track(d.EventID, dst)
		return dst, nil
	}

	// Plaintext: hand out the cache file directly unless the original
	// filename carries a different extension, in which case a consumer
	// needs a name-preserving copy to display it correctly.
	origExt := filepath.Ext(d.OriginalFileName)
	if d.OriginalFileName == "" || origExt == "" || origExt == filepath.Ext(d.CacheFilePath) {
		return d.CacheFilePath, nil
	}

	dst := filepath.Join(m.tempDir, filepath.Base(d.OriginalFileName))
	if err := copyNamed(d.CacheFilePath, dst); err != nil {
		return "", err
	}
	m.track(d.EventID, dst)
	return dst, nil
}

func (m *ExportManager) track(eventID, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created[eventID] = append(m.created[eventID], path)
}

// ShareEnded removes every file created for the given attachment. Safe to
// call when nothing was created or the files are already gone.
func (m *ExportManager) ShareEnded(eventID string) {
	m.mu.Lock()
	paths := m.created[eventID]
	delete(m.created, eventID)
	m.mu.Unlock()

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			m.log.Warn(context.Background(), "removing export file", "path", p, "error", err)
		}
	}
}

// RemoveAll clears every export regardless of owner; called on teardown.
func (m *ExportManager) RemoveAll() {
	m.mu.Lock()
	created := m.created
	m.created = make(map[string][]string)
	m.mu.Unlock()

	for _, paths := range created {
		for _, p := range paths {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				m.log.Warn(context.Background(), "removing export file", "path", p, "error", err)
			}
		}
	}
}

// copyNamed copies src to dst, removing any previous file at dst first so a
// repeated export never appends to or partially overwrites a stale one.
func copyNamed(src, dst string) error {
	if err := filex.EnsureDir(filepath.Dir(dst)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrExportFailure, err)
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", common.ErrExportFailure, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrExportFailure, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrExportFailure, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("%w: %v", common.ErrExportFailure, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("%w: %v", common.ErrExportFailure, err)
	}
	return nil
}
