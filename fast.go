package csvingest

import (
	"bytes"
	"context"
	"runtime"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"csvingest/internal/mmapfile"
)

// FastOptions tune FastLocal. The zero value scans with ',' fields,
// '\n' records, and one worker per CPU.
type FastOptions struct {
	// Delimiter is the field separator; zero means ','.
	Delimiter byte

	// LineBreak is the record terminator; zero means '\n'.
	LineBreak byte

	// Workers caps the number of parallel chunk scanners; zero means
	// runtime.NumCPU().
	Workers int

	// Verify computes the cross-path verification digest over the
	// required fields of every row.
	Verify bool

	// Limit caps the rows scanned per worker when > 0. With Verify it
	// bounds verification cost; the row count is then approximate.
	Limit uint64
}

// FastLocal scans a local, uncompressed, UTF-8 file by memory-mapping
// it and running delimiter search over disjoint record-aligned chunks
// in parallel. It produces the same Summary as ProcessStream for any
// input satisfying its assumptions:
//
//   - single-byte delimiter and line break
//   - no field contains an embedded line break
//   - quoting, if present, never wraps the line break or delimiter
//
// Violating an assumption is not detected: the scan stays memory-safe
// but the count or extracted field boundaries may be silently wrong.
// Callers that cannot vouch for the input must use ProcessStream. The
// mapping lives exactly as long as this call; no extracted bytes
// escape it.
//
// When opt.Verify is set, the second return value is the XOR of the
// per-row digests defined by rowDigest, comparable against
// ProcessStreamOpts on the same content.
func FastLocal(ctx context.Context, path string, required []string, opt FastOptions) (Summary, uint64, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
	}
	nl := opt.LineBreak
	if nl == 0 {
		nl = '\n'
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	mf, err := mmapfile.Open(path)
	if err != nil {
		return Summary{}, 0, wrapErr(KindIO, "fast scan", err)
	}
	defer mf.Close()

	data := mf.Bytes()

	// leading blank lines are skipped before the header, the same way
	// the record reader skips them
	headerStart, headerEnd := 0, 0
	for headerStart < len(data) {
		headerEnd = len(data)
		if i := bytes.IndexByte(data[headerStart:], nl); i >= 0 {
			headerEnd = headerStart + i
		}
		if len(trimTrailingCR(data[headerStart:headerEnd])) > 0 {
			break
		}
		headerStart = min(headerEnd+1, len(data))
	}
	if headerStart >= len(data) {
		// empty file, or nothing but blank lines
		if len(required) > 0 {
			return Summary{}, 0, &Error{
				Kind: KindValidation,
				Op:   "validate",
				Err:  &MissingHeadersError{Missing: append([]string(nil), required...)},
			}
		}
		return Summary{}, 0, nil
	}
	headers := parseFastHeader(data[headerStart:headerEnd], delim)

	fields, err := resolveFieldIndex(headers, required)
	if err != nil {
		return Summary{}, 0, err
	}
	cols := sortedIndices(fields)

	body := data[min(headerEnd+1, len(data)):]
	bounds := chunkBounds(body, workers, nl)

	results := make([]chunkResult, len(bounds)-1)
	g, gctx := errgroup.WithContext(ctx)
	for ci := 0; ci < len(bounds)-1; ci++ {
		ci := ci
		chunk := body[bounds[ci]:bounds[ci+1]]
		g.Go(func() error {
			res, err := scanChunk(gctx, chunk, delim, nl, cols, opt.Verify, opt.Limit)
			if err != nil {
				return err
			}
			results[ci] = res
			return nil
		})
	}
	// Merge only after every worker finished: a failed worker abandons
	// the whole scan rather than under-reporting from partial results.
	if err := g.Wait(); err != nil {
		return Summary{}, 0, wrapErr(KindIO, "fast scan", err)
	}

	var (
		rows   uint64
		digest uint64
	)
	for _, res := range results {
		rows += res.rows
		digest ^= res.digest
	}
	return Summary{RowCount: rows, Headers: headers}, digest, nil
}

// chunkBounds partitions body into up to workers ranges. Every interior
// bound sits immediately after a line break, so no chunk starts or ends
// inside a record; together the ranges cover body exactly.
func chunkBounds(body []byte, workers int, nl byte) []int {
	n := len(body)
	bounds := []int{0}
	if n == 0 || workers < 2 {
		return append(bounds, n)
	}

	approx := n / workers
	if approx == 0 {
		return append(bounds, n)
	}
	for w := 1; w < workers; w++ {
		pos := w * approx
		if pos <= bounds[len(bounds)-1] || pos >= n {
			continue
		}
		off := bytes.IndexByte(body[pos:], nl)
		if off < 0 {
			break
		}
		next := pos + off + 1
		if next > bounds[len(bounds)-1] && next < n {
			bounds = append(bounds, next)
		}
	}
	return append(bounds, n)
}

type chunkResult struct {
	rows   uint64
	digest uint64
}

// scanChunk counts records in one chunk and, in verify mode, folds the
// required fields of each into a running digest. Rows are located by
// raw line-break search; the CSV grammar is never run here.
func scanChunk(ctx context.Context, chunk []byte, delim, nl byte, cols []int, verify bool, limit uint64) (chunkResult, error) {
	// how often the cancellation check runs, in rows
	const checkEvery = 1 << 12

	var res chunkResult
	cursor := 0
	for cursor < len(chunk) {
		if res.rows%checkEvery == 0 {
			select {
			case <-ctx.Done():
				return chunkResult{}, ctx.Err()
			default:
			}
		}

		var row []byte
		if i := bytes.IndexByte(chunk[cursor:], nl); i >= 0 {
			row = chunk[cursor : cursor+i]
			cursor += i + 1
		} else {
			// only the final chunk can end without a terminator
			row = chunk[cursor:]
			cursor = len(chunk)
		}
		row = trimTrailingCR(row)
		if len(row) == 0 {
			continue
		}

		res.rows++
		if verify {
			res.digest ^= fastRowDigest(row, delim, cols)
		}
		if limit > 0 && res.rows >= limit {
			break
		}
	}
	return res, nil
}

// fastRowDigest mirrors rowDigest using delimiter search instead of
// parsed field bounds. cols must be ascending; the scan stops at the
// last required column instead of walking the whole row.
func fastRowDigest(row []byte, delim byte, cols []int) uint64 {
	h := xxh3.New()
	col, start := 0, 0
	exhausted := false
	for n, want := range cols {
		if n > 0 {
			_, _ = h.Write([]byte{fieldSep})
		}
		if exhausted {
			continue
		}
		for col < want {
			i := bytes.IndexByte(row[start:], delim)
			if i < 0 {
				exhausted = true
				break
			}
			start += i + 1
			col++
		}
		if exhausted {
			continue
		}
		end := len(row)
		if i := bytes.IndexByte(row[start:], delim); i >= 0 {
			end = start + i
		}
		_, _ = h.Write(row[start:end])
	}
	return h.Sum64()
}

func trimTrailingCR(row []byte) []byte {
	if len(row) > 0 && row[len(row)-1] == '\r' {
		return row[:len(row)-1]
	}
	return row
}

// parseFastHeader splits the header line on the raw delimiter. It
// strips one pair of surrounding quotes per cell (collapsing doubled
// quotes) so the header strings match the streaming parse; data rows
// get no such treatment.
func parseFastHeader(line []byte, delim byte) []string {
	line = trimTrailingCR(line)
	headers := make([]string, 0, bytes.Count(line, []byte{delim})+1)
	start := 0
	for i := 0; i <= len(line); i++ {
		if i == len(line) || line[i] == delim {
			headers = append(headers, headerCell(line[start:i]))
			start = i + 1
		}
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}
	return headers
}

func headerCell(b []byte) string {
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		return strings.ReplaceAll(string(b[1:len(b)-1]), `""`, `"`)
	}
	return string(b)
}
