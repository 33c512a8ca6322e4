package fat32

import (
	"github.com/pkg/errors"
)

// These errors may be returned by any of the volume operations.
// Device failures are returned as wrapped errors carrying the failing
// sector; everything else is one of these sentinels, so callers can
// dispatch with errors.Is.
var (
	// ErrNotFound is returned when the named file does not exist in the
	// root directory.
	ErrNotFound = errors.New("file not found")

	// ErrAlreadyExists is returned by CreateFile when the name is already
	// taken by a live directory entry.
	ErrAlreadyExists = errors.New("file already exists")

	// ErrNoSpace is returned when no free cluster or no free root
	// directory slot is available. The root directory chain is never
	// extended, so its capacity is fixed at mount time.
	ErrNoSpace = errors.New("no space left on volume")

	// ErrNotFat32 is returned by Mount for volumes that carry a valid BPB
	// but are not FAT32 (e.g. FAT12/16 images).
	ErrNotFat32 = errors.New("not a FAT32 volume")

	// ErrNotMounted is returned when an operation runs against a Volume
	// that was not produced by Mount.
	ErrNotMounted = errors.New("volume not mounted")

	// ErrNotSupported is returned by the afero surface for operations this
	// filesystem cannot express (subdirectories, renames, metadata).
	ErrNotSupported = errors.New("operation not supported")
)
