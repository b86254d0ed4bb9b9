// Package transfer moves remote media bytes onto local disk. Backends run
// downloads asynchronously and report completion through a subscribed sink;
// the coordinator package consumes those events and fans results out to
// waiters. A failed download never leaves bytes at the published path.
package transfer

import "context"

// Event is the completion signal for one transfer. Err is nil on success.
// URL identifies the source so a consumer can ignore stale events that no
// longer match what it asked for.
type Event struct {
	URL        string
	OutputPath string
	Err        error
}

// Service is the transfer collaborator contract.
type Service interface {
	// Subscribe registers the completion sink. Must be called once,
	// before any Start.
	Subscribe(fn func(Event))

	// Start begins an asynchronous download of url into outputPath.
	// Completion (success or failure) is delivered to the sink.
	Start(ctx context.Context, url, outputPath string) error

	// Existing reports whether a transfer for outputPath is in flight.
	Existing(outputPath string) bool
}
