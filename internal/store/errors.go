package store

import "github.com/pkg/errors"

// Sentinel failures surfaced to the tool boundary. Handlers match on these
// with errors.Is and turn them into descriptive text; none are fatal to the
// process.
var (
	// ErrConfigurationMissing means the assistant directory was never set.
	ErrConfigurationMissing = errors.New("assistant directory not configured: start with --path or set VERIFAI_ASSISTANT_DIR")

	// ErrDocumentNotFound means the target JSON file does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentCorrupt means the file exists but did not parse as the
	// expected structure. The wrap chain carries the parser's message.
	ErrDocumentCorrupt = errors.New("document corrupt")

	// ErrWriteError covers any failure while writing the backup, the temp
	// file, or performing the final rename.
	ErrWriteError = errors.New("write failed")
)
