package image

import (
	"io"

	"github.com/xaionaro-go/bytesextra"
)

// OpenMemory wraps an in-memory byte slice as an Image, the way tests build a volume
// without touching the host filesystem. Grounded on the teacher library's own test
// helpers (testing/images.go), which use the same bytesextra adapter for the same
// reason.
func OpenMemory(data []byte) *Image {
	s := &memStorage{data: data}
	s.rewrap()
	return New(s)
}

// memStorage adapts an in-memory byte slice to the Storage interface. Reads and writes
// go through an io.ReadWriteSeeker built with bytesextra, exactly as the teacher
// library's own test helpers wrap a byte slice; Truncate/Size are handled directly
// against the backing slice since bytesextra's stream has a fixed capacity and can't
// grow or shrink itself.
type memStorage struct {
	data   []byte
	stream io.ReadWriteSeeker
}

func (s *memStorage) rewrap() {
	s.stream = bytesextra.NewReadWriteSeeker(s.data)
}

func (s *memStorage) ReadAt(p []byte, off int64) (int, error) {
	if _, err := s.stream.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(s.stream, p)
}

func (s *memStorage) WriteAt(p []byte, off int64) (int, error) {
	if _, err := s.stream.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return s.stream.Write(p)
}

func (s *memStorage) Truncate(size int64) error {
	newData := make([]byte, size)
	copy(newData, s.data)
	s.data = newData
	s.rewrap()
	return nil
}

func (s *memStorage) Size() (int64, error) {
	return int64(len(s.data)), nil
}

func (s *memStorage) Close() error {
	return nil
}
