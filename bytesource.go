// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2021  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdf

import (
	"io"
	"os"
	"sync"
)

// byteSource is a random-access, bounded, read-only view of a PDF file's
// bytes. Implementations must be safe for concurrent reads. There is no
// seek state: callers carry their own cursors and pass an absolute offset
// on every call.
type byteSource interface {
	// Len returns the total number of bytes available.
	Len() int64

	// ReadAt returns up to len(p) bytes starting at off. A short read at
	// the end of the source returns the available prefix together with
	// io.EOF, matching io.ReaderAt's rule that fewer than len(p) bytes
	// come with a non-nil error; that io.EOF is the short-read marker.
	ReadAt(p []byte, off int64) (int, error)
}

// memorySource is a byteSource backed by an in-memory byte slice.
type memorySource struct {
	data []byte
}

func newMemorySource(data []byte) *memorySource {
	return &memorySource{data: data}
}

func (s *memorySource) Len() int64 { return int64(len(s.data)) }

func (s *memorySource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(s.data)) {
		if off == int64(len(s.data)) {
			return 0, io.EOF
		}
		return 0, newErrorAt(Io, io.ErrUnexpectedEOF, off)
	}
	n := copy(p, s.data[off:])
	var err error
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}

// fileSource is a byteSource backed by an *os.File, with a small
// read-through block buffer so that the many small sequential reads the
// tokenizer performs do not each incur a syscall, mirroring the teacher's
// own File.Get buffered-block approach.
type fileSource struct {
	mu   sync.Mutex
	f    *os.File
	size int64

	blockSize  int64
	blockIndex int64
	block      []byte
}

func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, newError(Io, err)
	}
	return &fileSource{
		f:          f,
		size:       info.Size(),
		blockSize:  32 * 1024,
		blockIndex: -1,
	}, nil
}

func (s *fileSource) Len() int64 { return s.size }

func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, newErrorAt(Io, io.ErrUnexpectedEOF, off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for total < len(p) {
		cur := off + int64(total)
		if cur >= s.size {
			return total, io.EOF
		}
		idx := cur / s.blockSize
		if idx != s.blockIndex {
			start := idx * s.blockSize
			buf := make([]byte, s.blockSize)
			n, err := s.f.ReadAt(buf, start)
			if n == 0 && err != nil && err != io.EOF {
				if total > 0 {
					return total, nil
				}
				return 0, newErrorAt(Io, err, start)
			}
			s.block = buf[:n]
			s.blockIndex = idx
		}
		blockOff := int(cur - idx*s.blockSize)
		if blockOff >= len(s.block) {
			return total, io.EOF
		}
		n := copy(p[total:], s.block[blockOff:])
		total += n
	}
	return total, nil
}

func (s *fileSource) Close() error {
	return s.f.Close()
}
