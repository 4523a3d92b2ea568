package forecast

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
)

// renderCommentary converts model markdown to HTML. Raw HTML in the input
// is not passed through.
func renderCommentary(md string) (template.HTML, error) {
	if md == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
