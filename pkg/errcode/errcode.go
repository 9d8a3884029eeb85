package errcode

import (
	"errors"

	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError

	// Logging errors
	CreateLogFileError

	// Query errors
	InvalidQueryError
	NameNotFoundError

	// Upstream errors
	UpstreamUnavailableError
	UpstreamDecodeError
	GeocodeUnavailableError

	// Registry errors
	RegistryLoadError
	NameTableLoadError
	TraitTableLoadError

	// Scratch storage errors
	ScratchOpenError
	ScratchWriteError
	ScratchReadError
	ScratchDeleteError

	// Server errors
	ServerStartError
)

// CodeOf returns the gn.ErrorCode carried by err, or UnknownError when
// err does not wrap a *gn.Error.
func CodeOf(err error) gn.ErrorCode {
	var gnErr *gn.Error
	if errors.As(err, &gnErr) {
		return gnErr.Code
	}
	return UnknownError
}
