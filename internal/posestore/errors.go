package posestore

import "errors"

var (
	// ErrCorrupt is returned by Load when the backing file exists but cannot be used.
	// The in-memory records and the file are left untouched.
	ErrCorrupt = errors.New("pose store file is corrupt")

	// ErrIO is returned when the backing file cannot be read or written.
	ErrIO = errors.New("pose store i/o failure")

	// ErrDuplicateName is returned when a name collides, ignoring case, with another record.
	ErrDuplicateName = errors.New("a view with this name already exists")

	// ErrIndexOutOfRange is returned for an index outside the unfiltered sequence.
	ErrIndexOutOfRange = errors.New("index out of range")
)
