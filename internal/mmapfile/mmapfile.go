// Package mmapfile maps regular files into memory read-only. The
// mapping is the backing arena for the parallel scanner: workers hold
// indices into it and never own separate copies, so the mapping must
// stay alive until every worker has finished.
package mmapfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// File is a read-only memory mapping of a regular file.
type File struct {
	f    *os.File
	data []byte
}

// Open opens path and maps its full contents. An empty file yields a
// valid *File with nil Bytes, since zero-length mappings are not
// portable.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Size() == 0 {
		return &File{f: f}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &File{f: f, data: data}, nil
}

// Bytes returns the mapped contents. The slice is invalidated by Close;
// callers must not retain sub-slices past it.
func (m *File) Bytes() []byte { return m.data }

// Close unmaps the file and releases the descriptor. It is safe to call
// once regardless of whether the mapping succeeded.
func (m *File) Close() error {
	var unmapErr error
	if m.data != nil {
		unmapErr = unix.Munmap(m.data)
		m.data = nil
	}
	closeErr := m.f.Close()
	if unmapErr != nil {
		return fmt.Errorf("munmap: %w", unmapErr)
	}
	return closeErr
}
