// Package csvingest provides streaming ingestion of delimited tabular
// data from heterogeneous byte sources with bounded memory.
//
// The pipeline has three cooperating pieces:
//
//   - Detect classifies a source from declared metadata (content type,
//     content encoding, a filename hint, explicit overrides) into a
//     compression kind and a character set.
//   - BuildReader composes the matching filter chain around a raw byte
//     stream: decompression first, then transcoding to UTF-8. The result
//     is a plain io.Reader regardless of how the source was stored.
//   - ProcessStream consumes the composed stream record by record,
//     validates required header columns, and produces a Summary without
//     decoding field values it was not asked for.
//
// FastLocal is an opt-in alternative to ProcessStream for local,
// uncompressed, UTF-8 files. It memory-maps the file and scans disjoint
// record-aligned chunks in parallel using raw byte search instead of the
// full CSV grammar. Its results match ProcessStream only under the
// documented assumptions (single-byte delimiter, no embedded newlines in
// fields); it is never selected implicitly.
package csvingest
