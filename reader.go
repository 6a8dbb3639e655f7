package csvingest

import (
	"bufio"
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"csvingest/internal/datasource/file"
)

// rawBufferSize is the buffered-read window in front of the filter
// chain. Larger reads mean fewer syscalls on big inputs.
const rawBufferSize = 1 << 20

// BuildReader composes the decoding pipeline around a raw byte source
// according to the resolved metadata: decompression first, directly on
// the raw bytes, then charset transcoding on the decompressed bytes.
// That order is fixed; compressed bytes are binary and must never be
// charset-decoded first.
//
// The returned ResolvedMeta records the decision actually used.
// Construction only fails for combinations the builder cannot build
// (KindConfig). A corrupt compressed body is not detected here: it
// surfaces as a read error once enough bytes have been consumed, since
// the body is never materialized up front.
func BuildReader(raw io.Reader, meta SourceMeta) (io.Reader, ResolvedMeta, error) {
	resolved := Detect(meta)

	var r io.Reader = bufio.NewReaderSize(raw, rawBufferSize)

	switch resolved.Compression {
	case CompressionNone:
	case CompressionGzip:
		r = &lazyGzipReader{src: r}
	case CompressionZstd:
		// Synchronous decode: no goroutines to release, so the composed
		// stream needs no Close of its own.
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, resolved, wrapErr(KindConfig, "build reader", err)
		}
		r = zr.IOReadCloser()
	default:
		return nil, resolved, newErr(KindConfig, "build reader",
			"unsupported compression %q", resolved.Compression)
	}

	r, err := charsetReader(r, resolved.Charset)
	if err != nil {
		return nil, resolved, err
	}
	return r, resolved, nil
}

// lazyGzipReader defers the gzip header parse to the first Read, so a
// corrupt stream fails on consumption rather than at construction.
type lazyGzipReader struct {
	src io.Reader
	gz  *gzip.Reader
	err error
}

func (l *lazyGzipReader) Read(p []byte) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	if l.gz == nil {
		gz, err := gzip.NewReader(l.src)
		if err != nil {
			l.err = wrapErr(KindIO, "gzip", err)
			return 0, l.err
		}
		l.gz = gz
	}
	return l.gz.Read(p)
}

// ReaderFromPath opens a local file and builds its decoding pipeline,
// deriving SourceMeta from the file name the same way a best-effort
// object store would: extension only, no content sniffing. Closing the
// returned reader releases the file.
func ReaderFromPath(ctx context.Context, path string) (io.ReadCloser, ResolvedMeta, error) {
	rc, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return nil, ResolvedMeta{}, wrapErr(KindIO, "open", err)
	}

	meta := SourceMeta{NameHint: filepath.Base(path)}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		meta.ContentType = "application/gzip"
		meta.ContentEncoding = "gzip"
	case ".zst":
		meta.ContentType = "application/zstd"
		meta.ContentEncoding = "zstd"
	default:
		meta.ContentType = "text/csv"
	}

	r, resolved, err := BuildReader(rc, meta)
	if err != nil {
		_ = rc.Close()
		return nil, resolved, err
	}
	return &composedReadCloser{Reader: r, Closer: rc}, resolved, nil
}

// composedReadCloser pairs the composed stream with the raw source's
// Close so callers release the file descriptor, not a filter.
type composedReadCloser struct {
	io.Reader
	io.Closer
}
