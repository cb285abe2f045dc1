package diffview

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const syntaxStyle = "monokai"

// Highlighter colours single source lines for one file type. A nil *Highlighter leaves lines untouched.
type Highlighter struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
}

// NewHighlighter picks a lexer from the file name. It returns nil for unknown file types.
func NewHighlighter(fileName string) *Highlighter {
	l := lexers.Match(fileName)
	if l == nil {
		return nil
	}

	f := formatters.Get("terminal256")
	if f == nil {
		f = formatters.Fallback
	}

	s := styles.Get(syntaxStyle)
	// Pane backgrounds belong to the diff styling, so token backgrounds are dropped.
	if stripped, err := s.Builder().Transform(func(e chroma.StyleEntry) chroma.StyleEntry {
		e.Background = 0
		return e
	}).Build(); err == nil {
		s = stripped
	}

	return &Highlighter{lexer: chroma.Coalesce(l), style: s, formatter: f}
}

// Line returns line with ANSI colour sequences added.
func (h *Highlighter) Line(line string) string {
	if h == nil || strings.TrimSpace(line) == "" {
		return line
	}
	it, err := h.lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, it); err != nil {
		return line
	}
	return strings.ReplaceAll(b.String(), "\n", "")
}
