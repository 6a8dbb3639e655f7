package csvingest

import "strings"

// Compression identifies the compression applied to a source.
//
// The zero value CompressionAuto means "not specified, infer from the
// other metadata". Detect never resolves to CompressionAuto.
type Compression int

const (
	// CompressionAuto defers the decision to Detect.
	CompressionAuto Compression = iota
	// CompressionNone marks an uncompressed source.
	CompressionNone
	// CompressionGzip marks a gzip-compressed source.
	CompressionGzip
	// CompressionZstd marks a zstandard-compressed source.
	CompressionZstd
)

// String returns a short lowercase token for logging.
func (c Compression) String() string {
	switch c {
	case CompressionAuto:
		return "auto"
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Charset identifies the character encoding of the decompressed bytes.
// The zero value is UTF-8, the canonical encoding all downstream parsing
// assumes. Any other label requires a transcoding filter.
type Charset struct {
	// Label is an IANA-style encoding label such as "windows-1250".
	// Empty means UTF-8.
	Label string
}

// IsUTF8 reports whether no transcoding is needed.
func (c Charset) IsUTF8() bool {
	switch strings.ToLower(c.Label) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// String returns the label, or "utf-8" for the zero value.
func (c Charset) String() string {
	if c.IsUTF8() {
		return "utf-8"
	}
	return strings.ToLower(c.Label)
}

// SourceMeta carries the declared hints about a source. All fields are
// optional; zero values mean "unknown". It is passed by value and never
// mutated.
type SourceMeta struct {
	// ContentType is the declared media type, e.g. "application/gzip" or
	// "text/csv; charset=windows-1250".
	ContentType string

	// ContentEncoding is the declared transfer encoding, e.g. "gzip" or
	// "gzip, identity".
	ContentEncoding string

	// NameHint is the bare file or object name, used for extension
	// fallback (".gz", ".zst").
	NameHint string

	// Compression, when not CompressionAuto, overrides any inference.
	Compression Compression

	// Charset, when non-empty, overrides any declared charset label.
	Charset string
}

// ResolvedMeta is the decision actually used to build the decoding
// pipeline. It is returned alongside the composed stream so callers can
// observe what was chosen.
type ResolvedMeta struct {
	Compression Compression
	Charset     Charset
}

// Detect resolves SourceMeta into a concrete compression and charset
// decision. It is a pure function: identical inputs always yield
// identical results, and unrecognized hints degrade to CompressionNone
// and UTF-8 rather than failing.
//
// Compression precedence, first match wins:
//
//  1. meta.Compression, when explicitly set.
//  2. A "gzip"/"x-gzip"/"zstd" token in ContentEncoding (comma-separated
//     list, tokens trimmed, case-insensitive).
//  3. The ContentType media type (parameters stripped at ';'):
//     application/gzip, application/x-gzip, application/zstd.
//  4. A NameHint suffix: .gz, .gzip, .zst, .zstd.
//
// Charset resolution is independent: meta.Charset wins, then a
// "charset=" parameter on ContentType, then UTF-8. No content sniffing
// is performed; declared values are trusted.
func Detect(meta SourceMeta) ResolvedMeta {
	return ResolvedMeta{
		Compression: detectCompression(meta),
		Charset:     detectCharset(meta),
	}
}

func detectCompression(meta SourceMeta) Compression {
	if meta.Compression != CompressionAuto {
		return meta.Compression
	}

	for _, tok := range strings.Split(meta.ContentEncoding, ",") {
		switch strings.ToLower(strings.TrimSpace(tok)) {
		case "gzip", "x-gzip":
			return CompressionGzip
		case "zstd":
			return CompressionZstd
		}
	}

	mediaType := meta.ContentType
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "application/gzip", "application/x-gzip":
		return CompressionGzip
	case "application/zstd":
		return CompressionZstd
	}

	name := strings.ToLower(meta.NameHint)
	switch {
	case strings.HasSuffix(name, ".gz"), strings.HasSuffix(name, ".gzip"):
		return CompressionGzip
	case strings.HasSuffix(name, ".zst"), strings.HasSuffix(name, ".zstd"):
		return CompressionZstd
	}

	return CompressionNone
}

func detectCharset(meta SourceMeta) Charset {
	label := strings.TrimSpace(meta.Charset)
	if label == "" {
		label = contentTypeCharset(meta.ContentType)
	}
	cs := Charset{Label: strings.ToLower(label)}
	if cs.IsUTF8() {
		return Charset{}
	}
	return cs
}

// contentTypeCharset extracts the value of a charset parameter from a
// media type string, or "" when absent.
func contentTypeCharset(contentType string) string {
	for _, part := range strings.Split(contentType, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), "charset") {
			continue
		}
		return strings.Trim(strings.TrimSpace(v), `"`)
	}
	return ""
}
