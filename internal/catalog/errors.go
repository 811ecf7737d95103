package catalog

import "errors"

var (
	// ErrProjectExists is returned when a project name is already registered.
	ErrProjectExists = errors.New("project name already exists")
	// ErrPathExists is returned when a file path is already cataloged.
	ErrPathExists = errors.New("file path already cataloged")
	// ErrAlreadyProcessing is returned when claiming a file that is not pending.
	ErrAlreadyProcessing = errors.New("file is not pending")
	// ErrNotProcessing is returned when completing or failing a file that no
	// worker holds.
	ErrNotProcessing = errors.New("file is not processing")
	// ErrNotInFailedState is returned when resetting a file that is not failed.
	ErrNotInFailedState = errors.New("file is not in failed state")
	// ErrOffsetMismatch is returned when an optimistic offset advance loses.
	ErrOffsetMismatch = errors.New("session offset mismatch")
)
