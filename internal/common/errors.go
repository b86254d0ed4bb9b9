// Package common defines shared sentinel errors used across the chatmedia
// layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrUnsupportedAttachment marks an event kind that cannot be
	// represented as an attachment (e.g. locations). It is a typed
	// "nothing to render" result, not a failure to surface loudly.
	ErrUnsupportedAttachment = errors.New("unsupported attachment")

	// ErrResolutionFailure means no fetch URL or cache path could be
	// derived from the event metadata.
	ErrResolutionFailure = errors.New("resolution failure")

	// ErrTransferFailure wraps errors propagated verbatim from the
	// transfer backend, including unknown causes.
	ErrTransferFailure = errors.New("transfer failure")

	// ErrDecryptionFailure covers integrity mismatches and malformed
	// ciphertext streams. Always fatal to the current attempt; partial
	// plaintext is never handed out.
	ErrDecryptionFailure = errors.New("decryption failure")

	// ErrExportFailure covers temp-file creation or copy failures in the
	// export path.
	ErrExportFailure = errors.New("export failure")
)
