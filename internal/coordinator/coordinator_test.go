package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/chatmedia/internal/logging"
	"github.com/dmitrijs2005/chatmedia/internal/transfer"
)

type fakeTransfer struct {
	sink     func(transfer.Event)
	started  []string
	startErr error
}

func (f *fakeTransfer) Subscribe(fn func(transfer.Event)) { f.sink = fn }

func (f *fakeTransfer) Start(ctx context.Context, url, outputPath string) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, url)
	return nil
}

func (f *fakeTransfer) Existing(outputPath string) bool { return false }

type fakeStore struct {
	present map[string][]byte
}

func newFakeStore() *fakeStore { return &fakeStore{present: make(map[string][]byte)} }

func (s *fakeStore) Exists(path string) bool {
	_, ok := s.present[path]
	return ok
}

func (s *fakeStore) Get(path string) ([]byte, error) { return s.present[path], nil }

func (s *fakeStore) Put(path string, data []byte) error {
	s.present[path] = data
	return nil
}

func newTestCoordinator() (*Coordinator, *fakeTransfer, *fakeStore) {
	svc := &fakeTransfer{}
	store := newFakeStore()
	c := New(svc, store, &logging.NopLogger{}, NewMetrics(prometheus.NewRegistry()))
	return c, svc, store
}

func TestEnsureCached_DeduplicatesConcurrentRequests(t *testing.T) {
	c, svc, _ := newTestCoordinator()
	ctx := context.Background()

	var order []int
	ready := func(n int) ReadyFunc {
		return func(string) { order = append(order, n) }
	}
	fail := func(string, error) { t.Fatal("unexpected failure") }

	for i := 0; i < 3; i++ {
		require.NoError(t, c.EnsureCached(ctx, "u", "/cache/a", ready(i), fail))
	}

	require.Len(t, svc.started, 1, "only the first request starts a transfer")
	assert.Equal(t, float64(2), testutil.ToFloat64(c.metrics.DedupHits))

	svc.sink(transfer.Event{URL: "u", OutputPath: "/cache/a"})
	assert.Equal(t, []int{0, 1, 2}, order, "waiters fire in registration order")
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.Completed))
}

func TestEnsureCached_DiskHitSkipsTransfer(t *testing.T) {
	c, svc, store := newTestCoordinator()
	store.present["/cache/a"] = []byte("bytes")

	var got string
	err := c.EnsureCached(context.Background(), "u", "/cache/a",
		func(p string) { got = p },
		func(string, error) { t.Fatal("unexpected failure") })
	require.NoError(t, err)

	assert.Equal(t, "/cache/a", got)
	assert.Empty(t, svc.started)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.DiskHits))
}

func TestComplete_StaleURLIgnored(t *testing.T) {
	c, svc, _ := newTestCoordinator()

	fired := false
	require.NoError(t, c.EnsureCached(context.Background(), "u", "/cache/a",
		func(string) { fired = true },
		func(string, error) { fired = true }))

	svc.sink(transfer.Event{URL: "other", OutputPath: "/cache/a"})
	assert.False(t, fired, "mismatched URL must not resolve the transfer")

	// the real completion still lands
	svc.sink(transfer.Event{URL: "u", OutputPath: "/cache/a"})
	assert.True(t, fired)
}

func TestComplete_FailureFansOut(t *testing.T) {
	c, svc, _ := newTestCoordinator()
	boom := errors.New("boom")

	var errs []error
	fail := func(_ string, err error) { errs = append(errs, err) }
	ready := func(string) { t.Fatal("unexpected success") }

	require.NoError(t, c.EnsureCached(context.Background(), "u", "/cache/a", ready, fail))
	require.NoError(t, c.EnsureCached(context.Background(), "u", "/cache/a", ready, fail))

	svc.sink(transfer.Event{URL: "u", OutputPath: "/cache/a", Err: boom})
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], boom)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.Failed))
}

func TestEnsureCached_StartErrorFailsImmediately(t *testing.T) {
	c, svc, _ := newTestCoordinator()
	svc.startErr = errors.New("backend down")

	var got error
	err := c.EnsureCached(context.Background(), "u", "/cache/a",
		func(string) { t.Fatal("unexpected success") },
		func(_ string, err error) { got = err })
	require.Error(t, err)
	assert.ErrorIs(t, got, svc.startErr)

	// registry slot was released: a retry is possible
	svc.startErr = nil
	require.NoError(t, c.EnsureCached(context.Background(), "u", "/cache/a",
		func(string) {}, func(string, error) {}))
	assert.Len(t, svc.started, 1)
}
