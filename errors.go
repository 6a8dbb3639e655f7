package csvingest

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies errors returned by the public entry points.
type Kind int

const (
	// KindIO covers read failures anywhere in the decoding chain or the
	// scanner, including mid-stream decompression corruption.
	KindIO Kind = iota
	// KindConfig marks a requested compression/charset combination the
	// reader builder cannot construct.
	KindConfig
	// KindValidation marks missing required header columns.
	KindValidation
	// KindFormat marks a record that violates expected structure under
	// strict parsing.
	KindFormat
	// KindEncoding marks a byte sequence invalid under the declared
	// charset.
	KindEncoding
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindFormat:
		return "format"
	case KindEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// Error is the typed error returned by the public entry points. The
// underlying cause remains reachable through errors.Is/As.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain. ok is
// false when the chain contains no *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err's chain contains an *Error of the given
// kind.
func IsKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

func wrapErr(k Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: k, Op: op, Err: err}
}

func newErr(k Kind, op, format string, args ...any) error {
	return &Error{Kind: k, Op: op, Err: fmt.Errorf(format, args...)}
}

// MissingHeadersError reports every required column absent from the
// header row, so callers get a complete diagnosis in one pass. It is
// always wrapped in an *Error with KindValidation.
type MissingHeadersError struct {
	Missing []string
}

func (e *MissingHeadersError) Error() string {
	return "missing required header(s): " + strings.Join(e.Missing, ", ")
}

// ParseError reports a record-level grammar violation with its line
// number. It is wrapped in an *Error with KindFormat by the processing
// entry points.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	// errUnterminatedQuote is returned when EOF is reached inside a
	// quoted field.
	errUnterminatedQuote = errors.New("unterminated quoted field")
	// errQuoteJunk is returned for bytes between a closing quote and the
	// next delimiter or record end.
	errQuoteJunk = errors.New("unexpected byte after closing quote")
)
