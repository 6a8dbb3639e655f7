// Package file implements the local-filesystem byte source and small
// helpers for list files kept next to the data.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local is a datasource.Source backed by a single local file.
type Local struct{ path string }

// NewLocal returns a Local source bound to path. The value is safe for
// concurrent use; each Open returns an independent stream.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the configured path for reading.
//
// If ctx is already canceled the context error is returned without
// touching the filesystem. Filesystem errors are wrapped with the path
// while keeping errors.Is/As checks intact (e.g. errors.Is(err,
// os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
