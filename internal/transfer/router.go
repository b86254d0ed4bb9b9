package transfer

import (
	"context"
	"strings"
)

// Router dispatches transfers to a backend by URL scheme: s3:// URLs go to
// the object-storage backend, everything else to HTTP. Both backends share
// the single subscribed sink.
type Router struct {
	httpSvc Service
	s3Svc   Service
}

func NewRouter(httpSvc, s3Svc Service) *Router {
	return &Router{httpSvc: httpSvc, s3Svc: s3Svc}
}

func (r *Router) pick(url string) Service {
	if strings.HasPrefix(url, "s3://") {
		return r.s3Svc
	}
	return r.httpSvc
}

func (r *Router) Subscribe(fn func(Event)) {
	r.httpSvc.Subscribe(fn)
	r.s3Svc.Subscribe(fn)
}

func (r *Router) Start(ctx context.Context, url, outputPath string) error {
	return r.pick(url).Start(ctx, url, outputPath)
}

func (r *Router) Existing(outputPath string) bool {
	return r.httpSvc.Existing(outputPath) || r.s3Svc.Existing(outputPath)
}
