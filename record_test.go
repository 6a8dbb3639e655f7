package csvingest

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// readAllRecords drains the reader into copied string rows.
func readAllRecords(t *testing.T, rr *RecordReader) ([][]string, error) {
	t.Helper()
	var rows [][]string
	for {
		rec, err := rr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		row := make([]string, rec.Len())
		for i := range row {
			row[i] = rec.Text(i)
		}
		rows = append(rows, row)
	}
}

func TestRecordReaderGrammar(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		in        string
		delim     byte
		want      [][]string
		wantErrIs error
	}{
		{
			name: "plain_rows",
			in:   "a,b,c\n1,2,3\n",
			want: [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name: "no_trailing_newline",
			in:   "a,b\n1,2",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "crlf_trimmed",
			in:   "a,b\r\n1,2\r\n",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "empty_fields",
			in:   "a,,c\n,,\n",
			want: [][]string{{"a", "", "c"}, {"", "", ""}},
		},
		{
			name: "trailing_delimiter_is_empty_field",
			in:   "a,b,\n",
			want: [][]string{{"a", "b", ""}},
		},
		{
			name: "quoted_delimiter",
			in:   "\"a,b\",c\n",
			want: [][]string{{"a,b", "c"}},
		},
		{
			name: "quoted_embedded_newline",
			in:   "\"line1\nline2\",x\n",
			want: [][]string{{"line1\nline2", "x"}},
		},
		{
			name: "doubled_quotes",
			in:   "\"he said \"\"hi\"\"\",y\n",
			want: [][]string{{`he said "hi"`, "y"}},
		},
		{
			name: "quoted_field_then_crlf",
			in:   "\"a\"\r\n\"b\"\r\n",
			want: [][]string{{"a"}, {"b"}},
		},
		{
			name: "quoted_field_at_eof",
			in:   "x,\"tail\"",
			want: [][]string{{"x", "tail"}},
		},
		{
			name: "bare_quote_in_unquoted_field_is_literal",
			in:   "a\"b,c\n",
			want: [][]string{{`a"b`, "c"}},
		},
		{
			name: "blank_lines_skipped",
			in:   "a,b\n\n\n1,2\n\n",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "crlf_blank_lines_skipped",
			in:   "a,b\r\n\r\n1,2\r\n",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "empty_input",
			in:   "",
			want: nil,
		},
		{
			name: "only_blank_lines",
			in:   "\n\n\n",
			want: nil,
		},
		{
			name:  "semicolon_delimiter",
			in:    "a;b,c\n1;2\n",
			delim: ';',
			want:  [][]string{{"a", "b,c"}, {"1", "2"}},
		},
		{
			name:      "junk_after_closing_quote",
			in:        "\"a\"x,b\n",
			wantErrIs: errQuoteJunk,
		},
		{
			name:      "cr_without_lf_after_closing_quote",
			in:        "\"a\"\rx",
			wantErrIs: errQuoteJunk,
		},
		{
			name:      "unterminated_quote",
			in:        "a,\"open\n",
			wantErrIs: errUnterminatedQuote,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			rr := NewRecordReader(strings.NewReader(c.in), c.delim)
			got, err := readAllRecords(t, rr)

			if c.wantErrIs != nil {
				if !errors.Is(err, c.wantErrIs) {
					t.Fatalf("errors.Is(%v, %v) = false", err, c.wantErrIs)
				}
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("error %v is not a *ParseError", err)
				}
				if pe.Line <= 0 {
					t.Fatalf("ParseError.Line = %d, want positive", pe.Line)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(c.want) {
				t.Fatalf("got %d rows %q, want %d rows %q", len(got), got, len(c.want), c.want)
			}
			for i := range got {
				if len(got[i]) != len(c.want[i]) {
					t.Fatalf("row %d: got %q, want %q", i, got[i], c.want[i])
				}
				for j := range got[i] {
					if got[i][j] != c.want[i][j] {
						t.Fatalf("row %d field %d: got %q, want %q", i, j, got[i][j], c.want[i][j])
					}
				}
			}
		})
	}
}

// TestRecordReaderLine checks Line across embedded newlines and skipped
// blank lines.
func TestRecordReaderLine(t *testing.T) {
	t.Parallel()

	rr := NewRecordReader(strings.NewReader("h\n\"a\nb\",x\n\nlast\n"), 0)
	wantLines := []int{1, 3, 5} // header, two-line quoted row, row after a blank
	for i, want := range wantLines {
		if _, err := rr.Read(); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if rr.Line() != want {
			t.Fatalf("record %d: Line() = %d, want %d", i, rr.Line(), want)
		}
	}
	if _, err := rr.Read(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

// TestRecordFieldBorrow verifies the zero-copy contract: Field shares
// bytes with the reader, Text is an independent copy.
func TestRecordFieldBorrow(t *testing.T) {
	t.Parallel()

	rr := NewRecordReader(strings.NewReader("abc,def\nxyz,uvw\n"), 0)
	rec, err := rr.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	kept := rec.Text(0)

	if _, err := rr.Read(); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if kept != "abc" {
		t.Fatalf("copied field mutated by next Read: %q", kept)
	}
}

// TestRecordReaderSmallReads forces many refills by feeding one byte
// per Read call.
func TestRecordReaderSmallReads(t *testing.T) {
	t.Parallel()

	src := oneByteReader{data: []byte("\"a,b\",c\n1,\"x\ny\"\n")}
	rr := NewRecordReader(&src, 0)
	got, err := readAllRecords(t, rr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{{"a,b", "c"}, {"1", "x\ny"}}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("row %d field %d: got %q, want %q", i, j, got[i][j], want[i][j])
			}
		}
	}
}

// oneByteReader yields one byte per Read.
type oneByteReader struct {
	data []byte
	pos  int
}

func (s *oneByteReader) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	p[0] = s.data[s.pos]
	s.pos++
	return 1, nil
}
