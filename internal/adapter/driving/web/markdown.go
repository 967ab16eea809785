package web

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// descriptions renders video descriptions. Raw HTML is let through goldmark
// and stripped afterwards by the UGC policy, which also drops event handlers
// and javascript: URLs.
var descriptions = struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}{
	md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe(), html.WithHardWraps()),
	),
	policy: newDescriptionPolicy(),
}

func newDescriptionPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// RenderMarkdown converts a video description to sanitized HTML.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := descriptions.md.Convert([]byte(src), &buf); err != nil {
		return descriptions.policy.Sanitize(src)
	}
	return descriptions.policy.Sanitize(buf.String())
}
