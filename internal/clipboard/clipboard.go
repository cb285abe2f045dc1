package clipboard

import (
	"fmt"
	"io"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// CopyText puts text on the system clipboard. When no clipboard utility is available it falls back to an OSC 52
// escape sequence written to term.
func CopyText(text string, term io.Writer) error {
	err := clipboard.WriteAll(text)
	if err == nil {
		return nil
	}
	if term == nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	if _, werr := osc52.New(text).WriteTo(term); werr != nil {
		return fmt.Errorf("copy to clipboard: %w", werr)
	}
	return nil
}
