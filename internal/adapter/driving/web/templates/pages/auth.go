// Package pages holds the page bodies rendered inside templates.Layout.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	t "github.com/ericfisherdev/streamhub/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/streamhub/internal/adapter/driving/web/viewmodel"
)

func csrfField(p *t.Printer, token string) {
	p.Rawf(`<input type="hidden" name="csrf_token" value="%s">`, t.Attr(token))
}

func formError(p *t.Printer, msg string) {
	if msg == "" {
		return
	}
	p.Raw(`<p class="form-error" role="alert">`)
	p.Text(msg)
	p.Raw(`</p>`)
}

func fieldError(p *t.Printer, field, errField, msg string) {
	if field == errField && msg != "" {
		p.Raw(`<span class="field-error">`)
		p.Text(msg)
		p.Raw(`</span>`)
	}
}

// Login renders the sign-in form.
func Login(form vm.LoginForm, csrf string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := t.NewPrinter(w)
		p.Raw(`<section class="card auth"><h1>Welcome back</h1><p class="muted">Sign in to continue streaming</p>`)
		formError(p, form.Error)
		p.Raw(`<form method="post" action="/login">`)
		csrfField(p, csrf)
		p.Rawf(`<label>Email<input type="email" name="email" value="%s" autocomplete="email"></label>`, t.Attr(form.Email))
		p.Raw(`<label>Password<input type="password" name="password" autocomplete="current-password"></label>`)
		p.Raw(`<button type="submit">Sign in</button></form>`)
		p.Raw(`<p>No account yet? <a href="/register">Register</a></p></section>`)
		return p.Err()
	})
}

// Register renders the registration form.
func Register(form vm.RegisterForm, csrf string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := t.NewPrinter(w)
		p.Raw(`<section class="card auth"><h1>Create account</h1><p class="muted">Join our video streaming platform</p>`)
		if form.ErrorField == "" {
			formError(p, form.Error)
		}
		p.Raw(`<form method="post" action="/register">`)
		csrfField(p, csrf)
		p.Rawf(`<label>Username<input type="text" name="username" value="%s" autocomplete="username">`, t.Attr(form.Username))
		fieldError(p, "username", form.ErrorField, form.Error)
		p.Rawf(`</label><label>Email<input type="email" name="email" value="%s" autocomplete="email">`, t.Attr(form.Email))
		fieldError(p, "email", form.ErrorField, form.Error)
		p.Raw(`</label><label>Password<input type="password" name="password" autocomplete="new-password">`)
		fieldError(p, "password", form.ErrorField, form.Error)
		p.Raw(`</label><label>Confirm password<input type="password" name="password2" autocomplete="new-password">`)
		fieldError(p, "password2", form.ErrorField, form.Error)
		p.Raw(`</label><button type="submit">Register</button></form>`)
		p.Raw(`<p>Already registered? <a href="/login">Sign in</a></p></section>`)
		return p.Err()
	})
}
