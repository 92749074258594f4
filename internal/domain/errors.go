package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidQuery signals an unusable search request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrSearchUnavailable signals that the search index rejected a request
	// and retrying will not help.
	ErrSearchUnavailable = errors.New("search index unavailable")
	// ErrIndexNotReady signals that the search index never reached the required readiness.
	ErrIndexNotReady = errors.New("search index not ready")
	// ErrBackfillFailing signals that vector backfill hit its consecutive failure limit.
	ErrBackfillFailing = errors.New("vector backfill failing")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingUnavailable signals that no embedding provider is configured.
	ErrEmbeddingUnavailable = errors.New("embedding provider not configured")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrNonFiniteVector signals NaN or Inf components in a vector.
	ErrNonFiniteVector = errors.New("vector has non-finite components")
)
