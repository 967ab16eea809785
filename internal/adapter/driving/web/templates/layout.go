package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	vm "github.com/ericfisherdev/streamhub/internal/adapter/driving/web/viewmodel"
)

// Layout wraps body in the HTML document with the navigation bar and the
// flash messages.
func Layout(page vm.Page, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := NewPrinter(w)
		p.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.Raw(`<title>`)
		if page.Title != "" {
			p.Text(page.Title)
			p.Raw(` - `)
		}
		p.Raw(`StreamHub</title><link rel="stylesheet" href="/static/app.css"></head><body>`)

		navbar(p, page)

		if len(page.Flashes) > 0 {
			p.Raw(`<div class="flashes" role="status">`)
			for _, f := range page.Flashes {
				p.Rawf(`<div class="flash flash-%s">`, Attr(f.Level))
				p.Text(f.Message)
				p.Raw(`</div>`)
			}
			p.Raw(`</div>`)
		}

		p.Raw(`<main>`)
		p.Component(ctx, body)
		p.Raw(`</main></body></html>`)
		return p.Err()
	})
}

func navbar(p *Printer, page vm.Page) {
	p.Raw(`<nav class="navbar"><a class="brand" href="/videos">StreamHub</a><div class="nav-links">`)
	p.Raw(`<a href="/videos">Videos</a>`)
	if page.User == nil {
		p.Raw(`<a href="/login">Login</a><a href="/register">Register</a></div></nav>`)
		return
	}
	p.Raw(`<a href="/my-videos">My Videos</a><a href="/upload">Upload</a>`)
	p.Rawf(`<span class="nav-user" title="%s">`, Attr(page.User.Email))
	p.Text(page.User.Name)
	p.Raw(`</span>`)
	p.Rawf(`<form method="post" action="/logout" class="inline"><input type="hidden" name="csrf_token" value="%s">`, Attr(page.CSRFToken))
	p.Raw(`<button type="submit">Logout</button></form></div></nav>`)
}
