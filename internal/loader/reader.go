package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

var (
	ErrFieldCount        = errors.New("wrong number of fields")
	ErrTooFewColumns     = errors.New("too few columns")
	ErrUnterminatedQuote = errors.New("unterminated quoted field")
	ErrTrailingEscape    = errors.New("escape character at end of input")
)

// ParseError reports a structural problem in an exported table.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reader decodes rows written by MySQL's SELECT ... INTO OUTFILE with
// FIELDS TERMINATED BY ',' OPTIONALLY ENCLOSED BY '"' ESCAPED BY '\\'
// LINES TERMINATED BY '\n'.
//
// The \N escape is kept verbatim so NULL columns surface as model.NullSentinel.
type Reader struct {
	r       *bufio.Reader
	line    int
	recLine int
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r), line: 1}
}

// RecordLine returns the line the most recently read record started on.
func (r *Reader) RecordLine() int { return r.recLine }

// Read returns the next record. Blank lines are skipped.
// It returns io.EOF when no records remain.
//
// Input is read byte by byte and fields keep their raw bytes, so exports in
// a legacy encoding such as latin1 come back unchanged.
func (r *Reader) Read() ([]string, error) {
	var (
		fields   []string
		field    []byte
		inQuotes bool
		started  bool // current field has consumed any input
		seen     bool // current record has consumed any input
	)
	start := r.line

	endField := func() {
		fields = append(fields, string(field))
		field = field[:0]
		started = false
	}

	for {
		c, err := r.r.ReadByte()
		if err == io.EOF {
			if inQuotes {
				return nil, &ParseError{Line: start, Err: ErrUnterminatedQuote}
			}
			if !seen {
				return nil, io.EOF
			}
			endField()
			r.recLine = start
			return fields, nil
		}
		if err != nil {
			return nil, err
		}

		switch {
		case c == '\\':
			n, err := r.r.ReadByte()
			if err == io.EOF {
				return nil, &ParseError{Line: r.line, Err: ErrTrailingEscape}
			}
			if err != nil {
				return nil, err
			}
			field = append(field, unescape(n)...)
			if n == '\n' {
				r.line++
			}
		case c == '"' && inQuotes:
			next, err := r.r.ReadByte()
			if err == nil && next == '"' {
				field = append(field, '"')
				break
			}
			if err == nil {
				_ = r.r.UnreadByte()
			}
			inQuotes = false
		case c == '"' && !started:
			inQuotes = true
		case c == '\n' && inQuotes:
			field = append(field, c)
			r.line++
		case c == '\n':
			r.line++
			if !seen {
				start = r.line
				continue
			}
			endField()
			r.recLine = start
			return fields, nil
		case c == '\r' && !inQuotes:
			// CRLF exports: drop the carriage return before a line terminator.
			if next, err := r.r.Peek(1); err == nil && next[0] == '\n' {
				continue
			}
			field = append(field, c)
		case c == ',' && !inQuotes:
			endField()
			seen = true
			continue
		default:
			field = append(field, c)
		}
		started = true
		seen = true
	}
}

func unescape(c byte) string {
	switch c {
	case '0':
		return "\x00"
	case 'b':
		return "\b"
	case 'n':
		return "\n"
	case 'r':
		return "\r"
	case 't':
		return "\t"
	case 'Z':
		return "\x1a"
	case 'N':
		return `\N`
	default:
		return string([]byte{c})
	}
}
