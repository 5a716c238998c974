package output_storage

import (
	"errors"
	"io"
	"os"
)

const readChunkSize = 32 * 1024

var (
	_ io.Writer     = (*OutputStorage)(nil)
	_ io.ReaderFrom = (*OutputStorage)(nil)
)

// Write appends a copy of p, so callers may reuse p afterwards. A nil storage
// swallows the write.
func (s *OutputStorage) Write(p []byte) (int, error) {
	if s == nil {
		return len(p), nil
	}
	if len(p) == 0 {
		return 0, nil
	}
	s.Append(append([]byte(nil), p...))
	return len(p), nil
}

// ReadFrom pumps r into the storage until EOF. The read buffer is reused; each
// read is stored as a right-sized copy. An endpoint closed under the reader
// counts as end of stream.
func (s *OutputStorage) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = s.Write(buf[:n])
			total += int64(n)
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, os.ErrClosed):
			return total, nil
		default:
			return total, err
		}
	}
}
