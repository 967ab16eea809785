// Package templates holds the page layout and the writer shared by the page
// components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Printer writes component markup and keeps the first write error so that
// components can emit markup without checking every call.
type Printer struct {
	w   io.Writer
	err error
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Raw writes trusted markup as is.
func (p *Printer) Raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

// Rawf formats trusted markup. Arguments are not escaped; pass them through
// templ.EscapeString or Attr first.
func (p *Printer) Rawf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Text writes s HTML-escaped.
func (p *Printer) Text(s string) {
	p.Raw(templ.EscapeString(s))
}

// Component renders a nested component.
func (p *Printer) Component(ctx context.Context, c templ.Component) {
	if p.err != nil || c == nil {
		return
	}
	p.err = c.Render(ctx, p.w)
}

// Err returns the first error encountered.
func (p *Printer) Err() error {
	return p.err
}

// Attr escapes s for use inside a double-quoted attribute.
func Attr(s string) string {
	return templ.EscapeString(s)
}

// URL sanitizes and escapes u for use in href or src.
func URL(u string) string {
	return templ.EscapeString(string(templ.URL(u)))
}
