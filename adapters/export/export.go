// Package export renders finished text artifacts to their output formats.
package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"groundwork/pkg/pipeline"
)

// Exporter implements pipeline.Exporter. Markdown and plain text pass
// through; "html" renders markdown with GitHub-flavored extensions.
type Exporter struct {
	md goldmark.Markdown
}

// New returns an Exporter.
func New() *Exporter {
	return &Exporter{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Export converts text to format. Supported formats: txt, markdown, html.
func (e *Exporter) Export(_ context.Context, text, format string) ([]byte, error) {
	switch format {
	case "", "txt", "text", "markdown", "md":
		return []byte(text), nil
	case "html":
		var buf bytes.Buffer
		if err := e.md.Convert([]byte(text), &buf); err != nil {
			return nil, fmt.Errorf("render html: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

var _ pipeline.Exporter = (*Exporter)(nil)
