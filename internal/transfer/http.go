package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/chatmedia/internal/common"
	"github.com/dmitrijs2005/chatmedia/internal/filex"
	"github.com/dmitrijs2005/chatmedia/internal/logging"
)

const partSuffix = ".part"

// HTTPService downloads media over plain HTTP(S). Each transfer streams into
// a .part sibling and is renamed into place only after the body is fully
// read, so the output path never holds a truncated file. Transient failures
// (5xx, network errors) are retried with exponential backoff.
type HTTPService struct {
	client     *http.Client
	log        logging.Logger
	maxRetries uint64
	baseDelay  time.Duration

	mu     sync.Mutex
	sink   func(Event)
	active map[string]struct{}
}

func NewHTTPService(client *http.Client, log logging.Logger) *HTTPService {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPService{
		client:     client,
		log:        log,
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		active:     make(map[string]struct{}),
	}
}

func (s *HTTPService) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = fn
}

func (s *HTTPService) Existing(outputPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[outputPath]
	return ok
}

func (s *HTTPService) Start(ctx context.Context, url, outputPath string) error {
	s.mu.Lock()
	if s.sink == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: no completion sink subscribed", common.ErrTransferFailure)
	}
	if _, ok := s.active[outputPath]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: transfer already in flight for %s", common.ErrTransferFailure, outputPath)
	}
	s.active[outputPath] = struct{}{}
	s.mu.Unlock()

	go s.run(ctx, url, outputPath)
	return nil
}

func (s *HTTPService) run(ctx context.Context, url, outputPath string) {
	err := s.download(ctx, url, outputPath)
	if err != nil {
		s.log.Warn(ctx, "download failed", "url", url, "error", err)
	}

	s.mu.Lock()
	delete(s.active, outputPath)
	sink := s.sink
	s.mu.Unlock()

	sink(Event{URL: url, OutputPath: outputPath, Err: err})
}

func (s *HTTPService) download(ctx context.Context, url, outputPath string) error {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.baseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return s.fetchOnce(ctx, url, outputPath)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", common.ErrTransferFailure, url, err)
	}
	return nil
}

func (s *HTTPService) fetchOnce(ctx context.Context, url, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %s", resp.Status)
		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(err)
		}
		return err
	}

	return writePart(outputPath, resp.Body)
}

// writePart streams src into outputPath+".part" and renames on success. The
// partial file is removed on any error.
func writePart(outputPath string, src io.Reader) error {
	if err := filex.EnsureDir(filepath.Dir(outputPath)); err != nil {
		return err
	}

	part := outputPath + partSuffix
	f, err := os.Create(part)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(part)
		return retry.RetryableError(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(part)
		return err
	}

	return os.Rename(part, outputPath)
}
