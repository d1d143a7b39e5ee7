package ai

import "context"

// Part is one element of a multi-part prompt: either text or an inline binary
// payload tagged with its MIME type.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string

	inline bool
}

// Text builds a text part.
func Text(s string) Part { return Part{Text: s} }

// Inline builds an inline-binary part.
func Inline(data []byte, mimeType string) Part {
	return Part{Data: data, MIMEType: mimeType, inline: true}
}

// IsInline reports whether the part was built by Inline, even when Data is empty.
func (p Part) IsInline() bool { return p.inline }

// Client is the completion service port: ordered prompt parts in, one text blob out.
type Client interface {
	Generate(ctx context.Context, parts []Part) (string, error)
}
