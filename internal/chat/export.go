package chat

import (
	"fmt"
	"io"
	"strings"

	"github.com/evallife/llm-chat/internal/types"
)

// WriteMarkdown renders entries as a markdown document, one section per entry.
func WriteMarkdown(w io.Writer, entries []types.Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "## %s\n\n%s\n\n---\n\n", strings.ToUpper(e.Speaker.Label()), e.Text); err != nil {
			return err
		}
	}
	return nil
}
