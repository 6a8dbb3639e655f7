package csvingest

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// charsetReader wraps r with a decoder that transcodes from cs to
// UTF-8. UTF-8 sources pass through untouched to avoid an extra copy.
// An unknown label is a KindConfig error: the builder refuses to pass
// bytes through undecoded.
func charsetReader(r io.Reader, cs Charset) (io.Reader, error) {
	if cs.IsUTF8() {
		return r, nil
	}
	enc, err := htmlindex.Get(cs.Label)
	if err != nil {
		return nil, newErr(KindConfig, "build reader", "unsupported charset %q", cs.Label)
	}
	return &transcodeReader{r: transform.NewReader(r, enc.NewDecoder()), label: cs.Label}, nil
}

// transcodeReader tags decode failures with KindEncoding so they are
// distinguishable from plain read errors further up the chain.
type transcodeReader struct {
	r     io.Reader
	label string
}

func (t *transcodeReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		var e *Error
		if errors.As(err, &e) {
			return n, err
		}
		return n, &Error{
			Kind: KindEncoding,
			Op:   "transcode",
			Err:  fmt.Errorf("decode %s: %w", t.label, err),
		}
	}
	return n, err
}
