package indexer

import "errors"

// Sentinel errors for the indexing engine. Callers classify failures with
// errors.Is; messages carry the specifics.
var (
	// ErrConfig indicates an invalid engine configuration.
	ErrConfig = errors.New("invalid configuration")

	// ErrValidation indicates a file failed pre-index validation: missing,
	// not a regular file, empty, or an unsupported extension.
	ErrValidation = errors.New("validation failed")

	// ErrNoLoader indicates no loader is registered for a file's format.
	ErrNoLoader = errors.New("no loader available")

	// ErrLoad indicates a loader failed to read or parse a file.
	ErrLoad = errors.New("load failed")

	// ErrChunk indicates chunking produced an error.
	ErrChunk = errors.New("chunking failed")

	// ErrStore indicates embedding or vector store persistence failed.
	ErrStore = errors.New("store failed")

	// ErrInvalidArgument indicates a caller-supplied argument is invalid.
	ErrInvalidArgument = errors.New("invalid argument")
)
