// ABOUTME: Transcript export - agent replies are markdown, rendered to HTML
// ABOUTME: Counterpart of the in-browser markdown rendering of the chat widget

package chat

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
)

// ExportHTML writes the conversation as a standalone HTML document.
// Message content is treated as markdown (the agent formats its replies
// with emphasis and lists) and converted with goldmark.
func (e *Engine) ExportHTML(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	buf.WriteString("<title>Asghar Autos — booking conversation</title>\n</head>\n<body>\n")
	buf.WriteString("<h1>Booking conversation</h1>\n")

	for _, msg := range e.Messages() {
		fmt.Fprintf(&buf, "<article class=%q>\n", string(msg.Role))
		fmt.Fprintf(&buf, "<h2>%s</h2>\n", html.EscapeString(string(msg.Role)))

		var rendered bytes.Buffer
		if err := goldmark.Convert([]byte(msg.Content), &rendered); err != nil {
			return fmt.Errorf("rendering message %s: %w", msg.ID, err)
		}
		buf.Write(rendered.Bytes())
		buf.WriteString("</article>\n")
	}

	buf.WriteString("</body>\n</html>\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	return nil
}
