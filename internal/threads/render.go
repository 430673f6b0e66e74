package threads

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// md renders message markdown for clients that want pre-rendered HTML.
// Raw HTML in message content is left escaped.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// RenderedMessage is a message plus its HTML rendering.
type RenderedMessage struct {
	Message
	HTML string `json:"html"`
}

func renderMessages(messages []Message) ([]RenderedMessage, error) {
	rendered := make([]RenderedMessage, 0, len(messages))
	for _, m := range messages {
		var buf bytes.Buffer
		if err := md.Convert([]byte(m.Content), &buf); err != nil {
			return nil, fmt.Errorf("rendering message %s: %w", m.ID, err)
		}
		rendered = append(rendered, RenderedMessage{Message: m, HTML: buf.String()})
	}
	return rendered, nil
}
