// Package coordinator deduplicates concurrent media downloads. Requests are
// keyed by the output cache path: the first request for a path starts a
// transfer, later requests for the same path attach as waiters, and the
// completion event fans out to every waiter in registration order.
package coordinator

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/chatmedia/internal/cachex"
	"github.com/dmitrijs2005/chatmedia/internal/logging"
	"github.com/dmitrijs2005/chatmedia/internal/transfer"
)

// ReadyFunc is invoked when the bytes for outputPath are on disk.
type ReadyFunc func(outputPath string)

// FailureFunc is invoked when the transfer for outputPath failed.
type FailureFunc func(outputPath string, err error)

type waiter struct {
	onReady   ReadyFunc
	onFailure FailureFunc
}

type inflight struct {
	url     string
	waiters []waiter
}

type Coordinator struct {
	svc     transfer.Service
	store   cachex.Store
	log     logging.Logger
	metrics *Metrics

	mu        sync.Mutex
	transfers map[string]*inflight
}

// New wires the coordinator as the transfer service's completion sink.
func New(svc transfer.Service, store cachex.Store, log logging.Logger, metrics *Metrics) *Coordinator {
	c := &Coordinator{
		svc:       svc,
		store:     store,
		log:       log,
		metrics:   metrics,
		transfers: make(map[string]*inflight),
	}
	svc.Subscribe(c.Complete)
	return c
}

// EnsureCached guarantees that outputPath eventually holds the bytes of url,
// invoking exactly one of onReady/onFailure. If the file is already cached
// the callback fires synchronously before EnsureCached returns; otherwise the
// request either starts a transfer or joins the one already in flight.
func (c *Coordinator) EnsureCached(ctx context.Context, url, outputPath string, onReady ReadyFunc, onFailure FailureFunc) error {
	if c.store.Exists(outputPath) {
		c.metrics.DiskHits.Inc()
		onReady(outputPath)
		return nil
	}

	c.mu.Lock()
	if t, ok := c.transfers[outputPath]; ok {
		t.waiters = append(t.waiters, waiter{onReady, onFailure})
		c.mu.Unlock()
		c.metrics.DedupHits.Inc()
		c.log.Debug(ctx, "joined in-flight transfer", "path", outputPath)
		return nil
	}
	c.transfers[outputPath] = &inflight{
		url:     url,
		waiters: []waiter{{onReady, onFailure}},
	}
	c.mu.Unlock()

	if err := c.svc.Start(ctx, url, outputPath); err != nil {
		c.mu.Lock()
		delete(c.transfers, outputPath)
		c.mu.Unlock()
		c.metrics.Failed.Inc()
		onFailure(outputPath, err)
		return err
	}
	c.metrics.Started.Inc()
	return nil
}

// Complete consumes a transfer completion event. An event whose URL does not
// match the registered transfer for its path is stale and is dropped.
func (c *Coordinator) Complete(e transfer.Event) {
	c.mu.Lock()
	t, ok := c.transfers[e.OutputPath]
	if !ok || t.url != e.URL {
		c.mu.Unlock()
		c.log.Debug(context.Background(), "dropping stale transfer event", "url", e.URL, "path", e.OutputPath)
		return
	}
	delete(c.transfers, e.OutputPath)
	waiters := t.waiters
	c.mu.Unlock()

	if e.Err != nil {
		c.metrics.Failed.Inc()
		for _, w := range waiters {
			w.onFailure(e.OutputPath, e.Err)
		}
		return
	}

	c.metrics.Completed.Inc()
	for _, w := range waiters {
		w.onReady(e.OutputPath)
	}
}
