package errors_test

import (
	"testing"

	pferrors "github.com/zapfs/pseudofat/errors"
	"github.com/stretchr/testify/assert"
)

func TestDiskoErrorWithMessage(t *testing.T) {
	newErr := pferrors.ErrExists.WithMessage("/a/b.txt")
	assert.Equal(t, "file already exists: /a/b.txt", newErr.Error())
	assert.ErrorIs(t, newErr, pferrors.ErrExists)
}

func TestDiskoErrorWrap(t *testing.T) {
	inner := pferrors.ErrIOFailed
	wrapped := pferrors.ErrNotFound.WrapError(inner)

	assert.Equal(t, "no such file: input/output error", wrapped.Error())
	assert.ErrorIs(t, wrapped, inner)
}

func TestToShellMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{pferrors.ErrNotFound, "ERROR: FILE NOT FOUND"},
		{pferrors.ErrDirNotFound, "ERROR: DIR NOT FOUND"},
		{pferrors.ErrExists, "ERROR: FILE ALREADY EXISTS"},
		{pferrors.ErrDirExists, "ERROR: DIR ALREADY EXISTS"},
		{pferrors.ErrIsADirectory, "ERROR: IS DIR"},
		{pferrors.ErrNotADirectory, "ERROR: IS NOT DIR"},
		{pferrors.ErrDirectoryNotEmpty, "ERROR: DIR IS NOT EMPTY"},
		{pferrors.ErrNoSpaceOnDevice, "ERROR: NO SPACE"},
		{pferrors.ErrCannotRemoveCurrentDir, "ERROR: CANNOT REMOVE CURRENT DIR"},
		{pferrors.ErrPathNotFound, "ERROR: PATH NOT FOUND"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, pferrors.ToShellMessage(tc.err))
	}

	wrapped := pferrors.ErrNotFound.WithMessage("/tmp/x")
	assert.Equal(t, "ERROR: FILE NOT FOUND", pferrors.ToShellMessage(wrapped))
}
