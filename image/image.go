// Package image implements the Image I/O layer: seek/read/write wrappers over the
// backing host file at absolute byte offsets. Every other layer of the file system
// addresses storage exclusively through this package.
package image

import (
	"io"
	"os"

	pferrors "github.com/zapfs/pseudofat/errors"
)

// Storage is the minimal surface the rest of the file system needs from the backing
// store: absolute-offset reads and writes, a truncate-and-rewind for `format`, and a
// way to find out how big the store currently is. A real disk image satisfies this with
// an *os.File; tests satisfy it with an in-memory buffer via bytesextra.
type Storage interface {
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
	Size() (int64, error)
	Close() error
}

// Image wraps a Storage with the byte-oriented Read/Write primitives the FAT engine,
// cluster store, and directory layer build on.
type Image struct {
	storage Storage
}

// New wraps an already-open Storage (typically used in tests, where Storage is backed
// by an in-memory buffer rather than a real file).
func New(storage Storage) *Image {
	return &Image{storage: storage}
}

// Open opens path for read/write access, creating an empty file if it doesn't already
// exist. This implements the CLOSED -> OPEN_UNFORMATTED transition of the image
// lifecycle state machine.
func Open(path string) (*Image, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, pferrors.ErrIOFailed.WrapError(err)
	}
	return New(&fileStorage{file: file}), nil
}

// Read returns n bytes read from offset. It is an error to request more bytes than are
// available in the backing store.
func (img *Image) Read(offset int64, n int) ([]byte, error) {
	buffer := make([]byte, n)
	read, err := img.storage.ReadAt(buffer, offset)
	if err != nil && !(err == io.EOF && read == n) {
		return nil, pferrors.ErrIOFailed.WrapError(err)
	}
	return buffer, nil
}

// Write writes data at offset.
func (img *Image) Write(offset int64, data []byte) error {
	_, err := img.storage.WriteAt(data, offset)
	if err != nil {
		return pferrors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// Size returns the current size of the backing store, in bytes.
func (img *Image) Size() (int64, error) {
	size, err := img.storage.Size()
	if err != nil {
		return 0, pferrors.ErrIOFailed.WrapError(err)
	}
	return size, nil
}

// Reset truncates the backing store to exactly size bytes, all zero. It's used by
// `format` to rebuild the image from scratch.
func (img *Image) Reset(size int64) error {
	if err := img.storage.Truncate(0); err != nil {
		return pferrors.ErrIOFailed.WrapError(err)
	}
	if err := img.storage.Truncate(size); err != nil {
		return pferrors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// Close releases the backing store.
func (img *Image) Close() error {
	return img.storage.Close()
}

// -----------------------------------------------------------------------------

// fileStorage adapts *os.File to the Storage interface.
type fileStorage struct {
	file *os.File
}

func (s *fileStorage) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

func (s *fileStorage) WriteAt(p []byte, off int64) (int, error) {
	return s.file.WriteAt(p, off)
}

func (s *fileStorage) Truncate(size int64) error {
	return s.file.Truncate(size)
}

func (s *fileStorage) Size() (int64, error) {
	info, err := s.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (s *fileStorage) Close() error {
	return s.file.Close()
}
