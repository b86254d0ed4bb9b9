package media

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dmitrijs2005/chatmedia/internal/attachment"
	"github.com/dmitrijs2005/chatmedia/internal/cachex"
	"github.com/dmitrijs2005/chatmedia/internal/common"
	"github.com/dmitrijs2005/chatmedia/internal/coordinator"
	"github.com/dmitrijs2005/chatmedia/internal/logging"
	"github.com/dmitrijs2005/chatmedia/internal/resolver"
)

// Service owns attachment orchestration: building descriptors, fetching
// through the coordinator, decrypting, and exporting. Attachments handed out
// by a Service are invalidated wholesale by Teardown via a generation
// counter, so callbacks that outlive a teardown silently no-op.
type Service struct {
	resolver    *resolver.Resolver
	coordinator *coordinator.Coordinator
	store       cachex.Store
	pipeline    *Pipeline
	exports     *ExportManager
	log         logging.Logger

	thumbWidth  int
	thumbHeight int

	generation atomic.Uint64
}

func NewService(r *resolver.Resolver, c *coordinator.Coordinator, store cachex.Store,
	pipeline *Pipeline, exports *ExportManager, log logging.Logger,
	thumbWidth, thumbHeight int) *Service {
	return &Service{
		resolver:    r,
		coordinator: c,
		store:       store,
		pipeline:    pipeline,
		exports:     exports,
		log:         log,
		thumbWidth:  thumbWidth,
		thumbHeight: thumbHeight,
	}
}

// NewAttachment builds and resolves a descriptor for the event and returns a
// live handle bound to the current generation.
func (s *Service) NewAttachment(ev attachment.Event) (*Attachment, error) {
	d, err := attachment.Build(ev)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Resolve(d); err != nil {
		return nil, err
	}
	return &Attachment{svc: s, Descriptor: d, generation: s.generation.Load()}, nil
}

// Teardown invalidates every outstanding attachment handle, purges decrypted
// thumbnails and removes all export files.
func (s *Service) Teardown() {
	s.generation.Add(1)
	s.pipeline.PurgeThumbnails()
	s.exports.RemoveAll()
}

// Attachment is a handle on one attachment's fetch/decrypt/export lifecycle.
// All callbacks are delivered at most once per request and are suppressed
// after Close or a Service teardown.
type Attachment struct {
	svc        *Service
	Descriptor *attachment.Descriptor

	generation uint64
	closed     atomic.Bool
}

func (a *Attachment) valid() bool {
	return !a.closed.Load() && a.generation == a.svc.generation.Load()
}

// Close detaches the handle; pending callbacks become no-ops.
func (a *Attachment) Close() {
	a.closed.Store(true)
}

func (a *Attachment) fail(onFailure func(error), err error) {
	if !a.valid() {
		return
	}
	onFailure(err)
}

func (a *Attachment) checkFetchable() error {
	if a.Descriptor.ContentAddress.IsPendingUpload() {
		return fmt.Errorf("%w: sender is still uploading", common.ErrResolutionFailure)
	}
	return nil
}

// Data fetches the content and delivers the plaintext bytes, decrypting if
// the content channel is encrypted.
func (a *Attachment) Data(ctx context.Context, onData func([]byte), onFailure func(error)) {
	if err := a.checkFetchable(); err != nil {
		a.fail(onFailure, err)
		return
	}
	d := a.Descriptor
	a.svc.coordinator.EnsureCached(ctx, d.FetchURL, d.CacheFilePath,
		func(path string) {
			if !a.valid() {
				return
			}
			data, err := a.contentBytes(path)
			if err != nil {
				onFailure(err)
				return
			}
			onData(data)
		},
		func(_ string, err error) { a.fail(onFailure, err) })
}

func (a *Attachment) contentBytes(path string) ([]byte, error) {
	if a.Descriptor.IsEncrypted() {
		return a.svc.pipeline.DecryptToMemory(path, a.Descriptor.ContentEncryption)
	}
	return a.svc.store.Get(path)
}

// Thumbnail delivers thumbnail bytes following the resolution priority. When
// no thumbnail source exists, image attachments fall back to the full
// content, scaled locally to the configured bounds.
func (a *Attachment) Thumbnail(ctx context.Context, onData func([]byte), onFailure func(error)) {
	d := a.Descriptor

	if d.ThumbnailURL == "" {
		if d.Kind != attachment.KindImage {
			a.fail(onFailure, fmt.Errorf("%w: no thumbnail source", common.ErrorNotFound))
			return
		}
		if cached, ok := a.svc.pipeline.ThumbnailFromCache(d.CacheFilePath); ok && a.valid() {
			onData(cached)
			return
		}
		a.Data(ctx, func(data []byte) {
			scaled, err := ScaleToFit(data, a.svc.thumbWidth, a.svc.thumbHeight)
			if err != nil {
				a.svc.log.Warn(ctx, "local thumbnail scaling failed, using full content",
					"event", d.EventID, "error", err)
				onData(data)
				return
			}
			a.svc.pipeline.StoreThumbnail(d.CacheFilePath, scaled)
			onData(scaled)
		}, onFailure)
		return
	}

	fetchURL := d.ThumbnailURL
	if d.ThumbnailEncryption != nil {
		u, err := a.svc.resolver.FetchURL(d.ThumbnailEncryption.Address)
		if err != nil {
			a.fail(onFailure, err)
			return
		}
		fetchURL = u
	}

	thumbPath := a.svc.resolver.CachePath(fetchURL, d.ThumbnailMimeType, d.RoomID)
	a.svc.coordinator.EnsureCached(ctx, fetchURL, thumbPath,
		func(path string) {
			if !a.valid() {
				return
			}
			data, err := a.thumbnailBytes(path)
			if err != nil {
				onFailure(err)
				return
			}
			onData(data)
		},
		func(_ string, err error) { a.fail(onFailure, err) })
}

func (a *Attachment) thumbnailBytes(path string) ([]byte, error) {
	if enc := a.Descriptor.ThumbnailEncryption; enc != nil {
		return a.svc.pipeline.DecryptThumbnail(path, enc)
	}
	return a.svc.store.Get(path)
}

// Export materializes the content as a plaintext file for sharing and
// delivers its path. Files created for the export live until ShareEnded or
// Service teardown.
func (a *Attachment) Export(ctx context.Context, onReady func(string), onFailure func(error)) {
	if err := a.checkFetchable(); err != nil {
		a.fail(onFailure, err)
		return
	}
	d := a.Descriptor
	a.svc.coordinator.EnsureCached(ctx, d.FetchURL, d.CacheFilePath,
		func(string) {
			if !a.valid() {
				return
			}
			path, err := a.svc.exports.Materialize(d)
			if err != nil {
				onFailure(err)
				return
			}
			onReady(path)
		},
		func(_ string, err error) { a.fail(onFailure, err) })
}

// ShareEnded removes every export file created for this attachment.
func (a *Attachment) ShareEnded() {
	a.svc.exports.ShareEnded(a.Descriptor.EventID)
}
