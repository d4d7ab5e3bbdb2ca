package rag

import (
	"errors"
	"fmt"
)

// ErrIndexNotFound reports a missing persisted index artifact. Callers must
// treat absence as "run the index build first", not as an empty index.
var ErrIndexNotFound = errors.New("vector index not found")

// IdentityMismatchError reports that a snapshot was built under a different
// embedding-space identity than the active embedding provider. Loading such
// a snapshot would silently produce garbage similarity scores, so it aborts
// startup instead.
type IdentityMismatchError struct {
	Stored Identity
	Active Identity
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("index identity mismatch: snapshot built with %s, active provider is %s",
		e.Stored, e.Active)
}

// RetrievalUnavailableError reports that retrieval failed because the
// embedding provider or index could not be reached. Distinct from an empty
// result set, which is a valid retrieval outcome.
type RetrievalUnavailableError struct {
	Cause error
}

func (e *RetrievalUnavailableError) Error() string {
	return fmt.Sprintf("retrieval unavailable: %v", e.Cause)
}

func (e *RetrievalUnavailableError) Unwrap() error { return e.Cause }
