package pages

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	t "github.com/ericfisherdev/streamhub/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/streamhub/internal/adapter/driving/web/viewmodel"
)

// VideoList renders a grid of video cards. The search form is shown on the
// public listing only.
func VideoList(list vm.VideoList, csrf string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := t.NewPrinter(w)
		p.Raw(`<section class="videos"><h1>`)
		p.Text(list.Heading)
		p.Raw(`</h1>`)

		if !list.Mine {
			p.Raw(`<form method="get" action="/videos" class="search">`)
			p.Rawf(`<input type="search" name="search" placeholder="Search videos" value="%s">`, t.Attr(list.Search))
			p.Raw(`<select name="sort">`)
			for _, o := range list.Sorts {
				selected := ""
				if o.Selected {
					selected = " selected"
				}
				p.Rawf(`<option value="%s"%s>`, t.Attr(o.Value), selected)
				p.Text(o.Label)
				p.Raw(`</option>`)
			}
			p.Raw(`</select><button type="submit">Search</button></form>`)
		}

		if len(list.Videos) == 0 {
			p.Raw(`<p class="empty">No videos found.</p></section>`)
			return p.Err()
		}

		p.Raw(`<ul class="video-grid">`)
		for _, v := range list.Videos {
			videoCard(p, v, list.Mine, csrf)
		}
		p.Raw(`</ul></section>`)
		return p.Err()
	})
}

func videoCard(p *t.Printer, v vm.VideoCard, mine bool, csrf string) {
	p.Rawf(`<li class="video-card"><a href="%s">`, t.URL(v.PlayerPath))
	if v.Thumbnail != "" {
		p.Rawf(`<img src="%s" alt="%s" loading="lazy">`, t.URL(v.Thumbnail), t.Attr(v.Title))
	} else {
		p.Raw(`<div class="no-thumbnail">No thumbnail</div>`)
	}
	p.Raw(`<h2>`)
	p.Text(v.Title)
	p.Raw(`</h2></a><p class="meta">`)
	if v.Username != "" {
		p.Text(v.Username)
		p.Raw(` · `)
	}
	p.Text(strconv.FormatInt(v.Views, 10))
	p.Raw(` views`)
	if v.Uploaded != "" {
		p.Raw(` · `)
		p.Text(v.Uploaded)
	}
	p.Raw(`</p>`)

	if mine {
		p.Rawf(`<div class="actions"><a href="%s">Edit</a>`, t.URL(v.EditPath))
		p.Rawf(`<form method="post" action="%s" class="inline" onsubmit="return confirm('Delete this video? This cannot be undone.')">`, t.URL(v.DeletePath))
		csrfField(p, csrf)
		p.Raw(`<button type="submit" class="danger">Delete</button></form></div>`)
	}
	p.Raw(`</li>`)
}

// VideoForm renders the upload form, or the edit form when form.Edit is set.
func VideoForm(form vm.VideoForm, csrf string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := t.NewPrinter(w)
		p.Raw(`<section class="card"><h1>`)
		if form.Edit {
			p.Raw(`Edit video`)
		} else {
			p.Raw(`Upload video`)
		}
		p.Raw(`</h1>`)
		if form.ErrorField == "" {
			formError(p, form.Error)
		}

		p.Rawf(`<form method="post" action="%s" enctype="multipart/form-data">`, t.URL(form.Action))
		csrfField(p, csrf)
		p.Rawf(`<label>Title<input type="text" name="title" value="%s" required>`, t.Attr(form.Title))
		fieldError(p, "title", form.ErrorField, form.Error)
		p.Raw(`</label><label>Description <small>(markdown)</small><textarea name="description" rows="5">`)
		p.Text(form.Description)
		p.Raw(`</textarea></label>`)

		if !form.Edit {
			p.Rawf(`<label>Video file<input type="file" name="file" accept="%s" required>`, t.Attr(form.Accept))
			fieldError(p, "file", form.ErrorField, form.Error)
			p.Raw(`</label>`)
		}

		if form.Thumbnail != "" {
			p.Rawf(`<img class="thumbnail-preview" src="%s" alt="Current thumbnail">`, t.URL(form.Thumbnail))
		}
		p.Raw(`<label>Thumbnail<input type="file" name="thumbnail" accept="image/*">`)
		fieldError(p, "thumbnail", form.ErrorField, form.Error)
		p.Raw(`</label>`)

		if form.Edit {
			p.Raw(`<button type="submit">Save changes</button> <a href="/my-videos">Cancel</a>`)
		} else {
			p.Raw(`<button type="submit">Upload</button>`)
		}
		p.Raw(`</form></section>`)
		return p.Err()
	})
}

// Player renders the stream viewer with its controls.
func Player(pl vm.Player, csrf string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := t.NewPrinter(w)
		p.Raw(`<section class="player"><a href="/videos" class="back">Back to videos</a><h1>`)
		p.Text(pl.Video.Title)
		p.Raw(`</h1>`)
		p.Rawf(`<img class="stream" src="%s" alt="Video stream">`, t.URL(pl.StreamPath))

		p.Raw(`<div class="controls">`)
		for _, c := range []struct{ path, label string }{
			{pl.StartPath, "Start"},
			{pl.StopPath, "Stop"},
			{pl.RestartPath, "Restart"},
		} {
			p.Rawf(`<form method="post" action="%s" class="inline">`, t.URL(c.path))
			csrfField(p, csrf)
			p.Rawf(`<button type="submit">%s</button></form>`, c.label)
		}
		p.Raw(`</div><p class="meta">`)
		p.Text(strconv.FormatInt(pl.Video.Views, 10))
		p.Raw(` views`)
		if pl.Video.Username != "" {
			p.Raw(` · uploaded by `)
			p.Text(pl.Video.Username)
		}
		p.Raw(`</p>`)

		if pl.DescriptionHTML != "" {
			// DescriptionHTML is sanitized by the markdown renderer.
			p.Raw(`<div class="description">`)
			p.Raw(pl.DescriptionHTML)
			p.Raw(`</div>`)
		}
		p.Raw(`</section>`)
		return p.Err()
	})
}

// NotFound renders the 404 body.
func NotFound() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := t.NewPrinter(w)
		p.Raw(`<section class="card"><h1>Page not found</h1><p><a href="/videos">Back to videos</a></p></section>`)
		return p.Err()
	})
}
