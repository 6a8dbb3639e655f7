// Package datasource defines the byte-source boundary of the ingestion
// pipeline: anything that can produce a stream of raw bytes on demand.
// The core never depends on which transport produced the stream.
package datasource

import (
	"context"
	"io"
)

// Source yields the raw bytes of one input. Open may be called more
// than once to obtain a fresh stream, e.g. when a caller retries after
// a transient failure; retry is always a caller concern.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
