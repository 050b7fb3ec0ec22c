// Package errors defines the closed set of sentinel errors the fat package can return.
// Each sentinel knows how to render itself as one of the exact stderr strings the shell
// front end prints (see ToShellMessage). WithMessage attaches context while keeping the
// sentinel's identity under errors.Is; WrapError instead unwraps to the wrapped error, so
// the result matches that error under errors.Is and no longer matches the sentinel.
package errors

import (
	"fmt"
)

type DiskoError string

const ErrNotFound = DiskoError("no such file")
const ErrDirNotFound = DiskoError("no such directory")
const ErrPathNotFound = DiskoError("path not found")
const ErrExists = DiskoError("file already exists")
const ErrDirExists = DiskoError("directory already exists")
const ErrIsADirectory = DiskoError("is a directory")
const ErrNotADirectory = DiskoError("is not a directory")
const ErrDirectoryNotEmpty = DiskoError("directory not empty")
const ErrNoSpaceOnDevice = DiskoError("no space left on device")
const ErrCannotRemoveCurrentDir = DiskoError("cannot remove current directory")
const ErrInvalidArgument = DiskoError("invalid argument")
const ErrIOFailed = DiskoError("input/output error")
const ErrFileSystemCorrupted = DiskoError("structure needs cleaning")

func (e DiskoError) Error() string {
	return string(e)
}

func (e DiskoError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e,
	}
}

func (e DiskoError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
	}
}

func (e DiskoError) Unwrap() error {
	return nil
}

// ToShellMessage maps a sentinel (however deeply wrapped) onto the exact stderr string
// the REPL front end must print. Errors that aren't one of the recognized sentinels fall
// back to a generic "ERROR: <message>" rendering.
func ToShellMessage(err error) string {
	switch {
	case errIs(err, ErrNotFound):
		return "ERROR: FILE NOT FOUND"
	case errIs(err, ErrDirNotFound):
		return "ERROR: DIR NOT FOUND"
	case errIs(err, ErrExists):
		return "ERROR: FILE ALREADY EXISTS"
	case errIs(err, ErrDirExists):
		return "ERROR: DIR ALREADY EXISTS"
	case errIs(err, ErrIsADirectory):
		return "ERROR: IS DIR"
	case errIs(err, ErrNotADirectory):
		return "ERROR: IS NOT DIR"
	case errIs(err, ErrDirectoryNotEmpty):
		return "ERROR: DIR IS NOT EMPTY"
	case errIs(err, ErrNoSpaceOnDevice):
		return "ERROR: NO SPACE"
	case errIs(err, ErrCannotRemoveCurrentDir):
		return "ERROR: CANNOT REMOVE CURRENT DIR"
	case errIs(err, ErrPathNotFound):
		return "ERROR: PATH NOT FOUND"
	default:
		return fmt.Sprintf("ERROR: %s", err.Error())
	}
}

// errIs walks the Unwrap() chain looking for `target`, without pulling in the standard
// `errors` package name (which would collide with this package's own name at call sites).
func errIs(err error, target DiskoError) bool {
	for err != nil {
		if de, ok := err.(DiskoError); ok && de == target {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		next := u.Unwrap()
		if next == nil {
			return false
		}
		err = next
	}
	return false
}
