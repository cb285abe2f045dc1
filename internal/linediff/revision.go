package linediff

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Revision is an immutable, 0-indexed sequence of lines. Lines never contain '\n'.
type Revision struct {
	lines []string
}

// NewRevision wraps lines without copying them. Callers must not mutate lines afterwards.
func NewRevision(lines []string) Revision {
	return Revision{lines: lines}
}

// DecodeRevision builds a Revision from raw file bytes.
//
// A UTF-8 BOM is stripped and UTF-16 input with a BOM is transcoded. CRLF is normalized to LF, and a single
// trailing newline does not produce an empty last line. Input that is not valid UTF-8 after decoding, or that
// contains NUL bytes, cannot be diffed and yields a *DiffComputationError.
func DecodeRevision(raw []byte) (Revision, error) {
	if len(raw) == 0 {
		return Revision{}, nil
	}

	decoded := bytes.TrimPrefix(raw, utf8BOM)
	if hasUTF16BOM(raw) {
		var err error
		decoded, _, err = transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
		if err != nil {
			return Revision{}, &DiffComputationError{Line: -1, Reason: "decode: " + err.Error()}
		}
	}
	if i := bytes.IndexByte(decoded, 0); i >= 0 {
		return Revision{}, &DiffComputationError{Line: bytes.Count(decoded[:i], []byte{'\n'}), Reason: "binary content"}
	}
	if !utf8.Valid(decoded) {
		return Revision{}, &DiffComputationError{Line: firstInvalidLine(decoded), Reason: "invalid utf-8"}
	}

	text := strings.ReplaceAll(string(decoded), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		// A file holding only a newline still has one (empty) line.
		if len(decoded) > 0 {
			return Revision{lines: []string{""}}, nil
		}
		return Revision{}, nil
	}
	return Revision{lines: strings.Split(text, "\n")}, nil
}

// DecodeRevisions decodes both sides of a comparison. A rejected side is named in the returned error.
func DecodeRevisions(base, target []byte) (Revision, Revision, error) {
	b, err := DecodeRevision(base)
	if err != nil {
		return Revision{}, Revision{}, withSide(err, SideBase)
	}
	t, err := DecodeRevision(target)
	if err != nil {
		return Revision{}, Revision{}, withSide(err, SideTarget)
	}
	return b, t, nil
}

func withSide(err error, side Side) error {
	var dce *DiffComputationError
	if errors.As(err, &dce) {
		tagged := *dce
		tagged.Side = side
		return &tagged
	}
	return err
}

// Len returns the number of lines.
func (r Revision) Len() int {
	return len(r.lines)
}

// Line returns line i. It panics if i is out of range.
func (r Revision) Line(i int) string {
	return r.lines[i]
}

// Lines returns the underlying lines. The slice must not be modified.
func (r Revision) Lines() []string {
	return r.lines
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func hasUTF16BOM(b []byte) bool {
	return len(b) >= 2 && ((b[0] == 0xFE && b[1] == 0xFF) || (b[0] == 0xFF && b[1] == 0xFE))
}

func firstInvalidLine(b []byte) int {
	line := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			return line
		}
		if r == '\n' {
			line++
		}
		b = b[size:]
	}
	return -1
}
