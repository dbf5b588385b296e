package domain

import "errors"

// Sentinel errors shared across components. Wrap with fmt.Errorf("%w")
// and test with errors.Is; the API layer maps them to status codes.
var (
	// ErrNotFound signals a missing table, batch, or audit row.
	ErrNotFound = errors.New("not found")

	// ErrEmptyBatch signals a processing request with zero records.
	// Batch-level, fatal: no partial result is produced.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrTableLoad signals that a decision table failed to load or
	// compile. Batch-level, fatal.
	ErrTableLoad = errors.New("decision table load failed")

	// ErrInvalidRule signals a malformed rule inside a table spec.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrExtraction signals that the extraction collaborator could not
	// turn an upload into records.
	ErrExtraction = errors.New("extraction failed")

	// ErrExtractorUnavailable signals that no extraction provider is
	// configured for upload processing.
	ErrExtractorUnavailable = errors.New("no extractor configured")
)
