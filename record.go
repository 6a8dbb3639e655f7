package csvingest

import "io"

// recordBufferSize is the fixed read-ahead window. Memory stays bounded
// by this buffer plus the bytes of the single record being assembled.
const recordBufferSize = 64 << 10

// RecordReader incrementally parses delimited records from a byte
// stream. It understands the full quoting grammar: quoted fields may
// contain the delimiter, doubled quotes, and embedded newlines. A quote
// inside an unquoted field is kept as literal data; bytes between a
// closing quote and the next delimiter or line end are a ParseError.
//
// The reader never buffers more than one record plus a fixed refill
// window, regardless of input size.
type RecordReader struct {
	src   io.Reader
	delim byte

	buf    []byte
	bufPos int
	bufLen int
	srcErr error

	data     []byte // assembled field bytes of the current record
	bounds   []int  // end offset of each field within data
	line     int    // newlines consumed so far
	finished bool
}

// NewRecordReader returns a RecordReader over r using the given field
// delimiter. A zero delimiter defaults to ','.
func NewRecordReader(r io.Reader, delim byte) *RecordReader {
	if delim == 0 {
		delim = ','
	}
	return &RecordReader{
		src:    r,
		delim:  delim,
		buf:    make([]byte, recordBufferSize),
		data:   make([]byte, 0, 512),
		bounds: make([]int, 0, 32),
	}
}

// Line returns the number of input lines consumed so far, counting
// newlines embedded in quoted fields.
func (r *RecordReader) Line() int { return r.line }

func (r *RecordReader) readByte() (byte, error) {
	for r.bufPos >= r.bufLen {
		if r.srcErr != nil {
			return 0, r.srcErr
		}
		n, err := r.src.Read(r.buf)
		r.bufPos, r.bufLen = 0, n
		if err != nil {
			r.srcErr = err
		}
	}
	b := r.buf[r.bufPos]
	r.bufPos++
	return b, nil
}

const (
	stateFieldStart = iota
	stateUnquoted
	stateQuoted
	stateQuoteEnd
)

// Read parses the next record. The returned Record borrows the reader's
// internal buffers and stays valid only until the next call to Read;
// callers that need to retain a field must copy it (see Record.Text).
// io.EOF signals that no records remain. Completely empty lines are
// skipped, matching encoding/csv.
func (r *RecordReader) Read() (Record, error) {
	if r.finished {
		return Record{}, io.EOF
	}
	r.data = r.data[:0]
	r.bounds = r.bounds[:0]

	recLine := r.line + 1
	state := stateFieldStart
	sawAny := false

	endField := func() { r.bounds = append(r.bounds, len(r.data)) }
	// drop a carriage return left at the tail of the current field by a
	// CRLF line ending
	trimCR := func() {
		start := 0
		if n := len(r.bounds); n > 0 {
			start = r.bounds[n-1]
		}
		if len(r.data) > start && r.data[len(r.data)-1] == '\r' {
			r.data = r.data[:len(r.data)-1]
		}
	}
	blank := func() bool { return len(r.bounds) == 0 && len(r.data) == 0 }

	for {
		b, err := r.readByte()
		if err != nil {
			if err != io.EOF {
				return Record{}, err
			}
			r.finished = true
			switch state {
			case stateQuoted:
				return Record{}, &ParseError{Line: recLine, Err: errUnterminatedQuote}
			case stateFieldStart:
				if !sawAny {
					return Record{}, io.EOF
				}
				endField()
			case stateUnquoted:
				trimCR()
				endField()
			default:
				endField()
			}
			r.line++
			return Record{data: r.data, bounds: r.bounds}, nil
		}

		switch state {
		case stateFieldStart:
			switch b {
			case r.delim:
				sawAny = true
				endField()
			case '\n':
				r.line++
				if !sawAny && blank() {
					recLine = r.line + 1
					continue
				}
				endField()
				return Record{data: r.data, bounds: r.bounds}, nil
			case '"':
				sawAny = true
				state = stateQuoted
			default:
				sawAny = true
				r.data = append(r.data, b)
				state = stateUnquoted
			}

		case stateUnquoted:
			switch b {
			case r.delim:
				endField()
				state = stateFieldStart
			case '\n':
				r.line++
				trimCR()
				if len(r.bounds) == 0 && len(r.data) == 0 {
					// line was a lone CRLF
					sawAny = false
					recLine = r.line + 1
					state = stateFieldStart
					continue
				}
				endField()
				return Record{data: r.data, bounds: r.bounds}, nil
			default:
				r.data = append(r.data, b)
			}

		case stateQuoted:
			switch b {
			case '"':
				state = stateQuoteEnd
			case '\n':
				r.line++
				r.data = append(r.data, b)
			default:
				r.data = append(r.data, b)
			}

		case stateQuoteEnd:
			switch b {
			case '"':
				// doubled quote inside a quoted field
				r.data = append(r.data, b)
				state = stateQuoted
			case r.delim:
				endField()
				state = stateFieldStart
			case '\n':
				r.line++
				endField()
				return Record{data: r.data, bounds: r.bounds}, nil
			case '\r':
				nb, err := r.readByte()
				if err == io.EOF {
					r.finished = true
					endField()
					r.line++
					return Record{data: r.data, bounds: r.bounds}, nil
				}
				if err != nil {
					return Record{}, err
				}
				if nb != '\n' {
					return Record{}, &ParseError{Line: recLine, Err: errQuoteJunk}
				}
				r.line++
				endField()
				return Record{data: r.data, bounds: r.bounds}, nil
			default:
				return Record{}, &ParseError{Line: recLine, Err: errQuoteJunk}
			}
		}
	}
}

// Record is a parsed row. Field values are byte slices into the parent
// reader's buffers: cheap to inspect, invalidated by the next Read.
type Record struct {
	data   []byte
	bounds []int
}

// Len returns the number of fields in the record.
func (rec Record) Len() int { return len(rec.bounds) }

// Field returns the raw bytes of field i without copying. It panics if
// i is out of range, mirroring slice indexing.
func (rec Record) Field(i int) []byte {
	start := 0
	if i > 0 {
		start = rec.bounds[i-1]
	}
	return rec.data[start:rec.bounds[i]]
}

// Text returns field i decoded as a string. This is the only place a
// field is copied; rows whose fields are never requested cost nothing
// beyond parsing.
func (rec Record) Text(i int) string { return string(rec.Field(i)) }
