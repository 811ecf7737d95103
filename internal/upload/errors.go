package upload

import "errors"

var (
	// ErrProjectNotFound is returned when a session targets an unknown project.
	ErrProjectNotFound = errors.New("project not found")
	// ErrSessionNotFound is returned for unknown or already-finalized tokens.
	ErrSessionNotFound = errors.New("upload session not found")
	// ErrInvalidLength is returned when a declared upload length is negative.
	// Zero is allowed; an empty file finalizes as soon as its session opens.
	ErrInvalidLength = errors.New("upload length must be non-negative")
	// ErrInvalidName is returned when a file name is empty or contains path
	// separators.
	ErrInvalidName = errors.New("invalid file name")
	// ErrOffsetMismatch is returned when a chunk's offset does not match the
	// session's current offset. The staging file is untouched.
	ErrOffsetMismatch = errors.New("chunk offset does not match session offset")
	// ErrLengthExceeded is returned when a chunk would write past the declared
	// length. Nothing is written.
	ErrLengthExceeded = errors.New("chunk exceeds declared upload length")
	// ErrChunkTooLarge is returned when a chunk is bigger than the configured
	// maximum.
	ErrChunkTooLarge = errors.New("chunk exceeds maximum chunk size")
	// ErrIncompleteUpload is returned when finalizing a session whose offset
	// has not reached its declared length.
	ErrIncompleteUpload = errors.New("upload is not complete")
	// ErrDestinationExists is returned when the finalize target path is
	// already cataloged or present on disk.
	ErrDestinationExists = errors.New("destination file already exists")
)
