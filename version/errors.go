package version

import (
	"errors"
	"fmt"
)

var (
	ErrNotMoveable     = errors.New("patch is not moveable")
	ErrIndexOutOfRange = errors.New("patch index out of range")
	ErrPatchNotFound   = errors.New("patch not found")
	ErrTargetExists    = errors.New("target file already exists")
)

// ParseError means a patch file could not be read or does not follow the schema.
type ParseError struct {
	File   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unable to process the version file %s: %s: %v", e.File, e.Reason, e.Err)
	}
	return fmt.Sprintf("unable to process the version file %s: %s", e.File, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IdentityMismatchError means a patch file's declared id differs from the id
// it was loaded under.
type IdentityMismatchError struct {
	FileID     string
	DeclaredID string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("load id %s does not match internal id %s", e.FileID, e.DeclaredID)
}

// OrderConflictError means two untracked patches declare the same order hint.
type OrderConflictError struct {
	Order  int
	First  string
	Second string
}

func (e *OrderConflictError) Error() string {
	return fmt.Sprintf("%s has the same order (%d) as %s", e.Second, e.Order, e.First)
}

// VersionIncompleteError means a builtin patch could not be produced.
type VersionIncompleteError struct {
	UID string
	Err error
}

func (e *VersionIncompleteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("version is incomplete: missing %s: %v", e.UID, e.Err)
	}
	return "version is incomplete: missing " + e.UID
}

func (e *VersionIncompleteError) Unwrap() error { return e.Err }

// OrderFileFormatError is never fatal. The loader logs it and ignores the order file.
type OrderFileFormatError struct {
	Path   string
	Reason string
}

func (e *OrderFileFormatError) Error() string {
	return fmt.Sprintf("bad order file %s: %s", e.Path, e.Reason)
}
