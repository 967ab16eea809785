package web

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/streamhub/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/streamhub/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/streamhub/internal/application"
	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

// Videos renders the public listing with search and sort.
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	q := model.VideoQuery{
		Search: r.URL.Query().Get("search"),
		Sort:   model.VideoSort(r.URL.Query().Get("sort")),
	}

	videos, err := h.videoSvc.List(r.Context(), q)
	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.logger.Warn("failed to list videos", "error", err)
		h.flash(r.Context(), model.NotificationError, application.UserMessage(err, application.MessageVideosLoadFailed))
	}

	list := vm.VideoList{
		Heading: "All Videos",
		Videos:  toVideoCards(videos),
		Search:  q.Search,
		Sorts:   sortOptions(q.Sort),
	}
	csrf := csrfToken(w, r)
	h.render(w, r, http.StatusOK, "Videos", csrf, pages.VideoList(list, csrf))
}

// MyVideos renders the session user's videos with edit and delete actions.
func (h *Handler) MyVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.videoSvc.Mine(r.Context())
	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.logger.Warn("failed to list own videos", "error", err)
		h.flash(r.Context(), model.NotificationError, application.UserMessage(err, application.MessageVideosLoadFailed))
	}

	list := vm.VideoList{
		Heading: "My Videos",
		Videos:  toVideoCards(videos),
		Mine:    true,
	}
	csrf := csrfToken(w, r)
	h.render(w, r, http.StatusOK, "My Videos", csrf, pages.VideoList(list, csrf))
}

// UploadPage renders the upload form.
func (h *Handler) UploadPage(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}
	csrf := csrfToken(w, r)
	form := vm.VideoForm{Action: "/upload", Accept: uploadAccept()}
	h.render(w, r, http.StatusOK, "Upload", csrf, pages.VideoForm(form, csrf))
}

// Upload sends the submitted video to the backend.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	defer removeMultipart(r)

	up := model.VideoUpload{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if fh := formFile(r, "file"); fh != nil {
		up.File = fileSource(fh)
	}
	if fh := formFile(r, "thumbnail"); fh != nil {
		thumb := fileSource(fh)
		up.Thumbnail = &thumb
	}

	if _, err := h.videoSvc.Upload(r.Context(), up, h.uploadProgress(up.Title)); err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		form := vm.VideoForm{
			Action:      "/upload",
			Title:       up.Title,
			Description: up.Description,
			Accept:      uploadAccept(),
			Error:       application.UserMessage(err, application.MessageUploadFailed),
			ErrorField:  validationField(err),
		}
		csrf := csrfToken(w, r)
		h.render(w, r, http.StatusOK, "Upload", csrf, pages.VideoForm(form, csrf))
		return
	}
	redirect(w, r, "/my-videos")
}

// uploadProgress logs upload progress in quarter steps.
func (h *Handler) uploadProgress(title string) model.ProgressFunc {
	const step = 25
	next := int64(step)
	return func(sent, total int64) {
		if total <= 0 || next > 100 {
			return
		}
		if pct := sent * 100 / total; pct >= next {
			h.logger.Debug("upload progress", "title", title, "percent", pct)
			next = (pct/step + 1) * step
		}
	}
}

// EditPage renders the edit form for one of the user's videos.
func (h *Handler) EditPage(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}
	id := model.ID(r.PathValue("id"))

	video, err := h.videoSvc.Get(r.Context(), id)
	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.logger.Warn("failed to load video", "id", id, "error", err)
		h.flash(r.Context(), model.NotificationError, application.UserMessage(err, application.MessageVideoLoadFailed))
		redirect(w, r, "/my-videos")
		return
	}

	form := vm.VideoForm{
		Action:      videoPath(id, "/edit"),
		Title:       video.Title,
		Description: video.Description,
		Thumbnail:   video.Thumbnail,
		Edit:        true,
	}
	csrf := csrfToken(w, r)
	h.render(w, r, http.StatusOK, "Edit video", csrf, pages.VideoForm(form, csrf))
}

// Edit applies the submitted changes. The thumbnail is only replaced when a
// new file was chosen.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	defer removeMultipart(r)
	id := model.ID(r.PathValue("id"))

	title := r.FormValue("title")
	description := r.FormValue("description")
	patch := model.VideoPatch{Title: &title, Description: &description}
	if fh := formFile(r, "thumbnail"); fh != nil {
		thumb := fileSource(fh)
		patch.Thumbnail = &thumb
	}

	if _, err := h.videoSvc.Update(r.Context(), id, patch); err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		form := vm.VideoForm{
			Action:      videoPath(id, "/edit"),
			Title:       title,
			Description: description,
			Edit:        true,
			Error:       application.UserMessage(err, application.MessageUpdateFailed),
			ErrorField:  validationField(err),
		}
		csrf := csrfToken(w, r)
		h.render(w, r, http.StatusOK, "Edit video", csrf, pages.VideoForm(form, csrf))
		return
	}
	redirect(w, r, "/my-videos")
}

// Delete removes a video and returns to "my videos".
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := model.ID(r.PathValue("id"))
	if err := h.videoSvc.Delete(r.Context(), id); err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.flash(r.Context(), model.NotificationError, application.UserMessage(err, application.MessageDeleteFailed))
	}
	redirect(w, r, "/my-videos")
}

// Player renders the stream viewer. For a signed-in user the backend stream
// is started first unless autostart=0 is given.
func (h *Handler) Player(w http.ResponseWriter, r *http.Request) {
	id := model.ID(r.PathValue("id"))

	video, err := h.videoSvc.Get(r.Context(), id)
	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.logger.Warn("failed to load video", "id", id, "error", err)
		h.flash(r.Context(), model.NotificationError, application.UserMessage(err, application.MessageVideoLoadFailed))
		redirect(w, r, "/videos")
		return
	}

	if r.URL.Query().Get("autostart") != "0" {
		h.autostart(w, r, id)
	}

	pl := toPlayer(*video)
	// Cache-bust so a restarted stream is fetched again.
	pl.StreamPath += "?t=" + strconv.FormatInt(time.Now().UnixNano(), 10)
	csrf := csrfToken(w, r)
	h.render(w, r, http.StatusOK, video.Title, csrf, pages.Player(pl, csrf))
}

func (h *Handler) autostart(w http.ResponseWriter, r *http.Request, id model.ID) {
	user, err := h.authSvc.CurrentUser(r.Context())
	if err != nil || user == nil {
		return
	}
	if err := h.videoSvc.StartStream(r.Context(), id); err != nil {
		h.logger.Warn("failed to start stream", "id", id, "error", err)
		if !application.IsSessionExpired(err) {
			h.flash(r.Context(), model.NotificationError, application.UserMessage(err, application.MessageStreamStartFailed))
		}
	}
}

// StreamControl starts, stops or restarts the backend stream and returns to
// the player.
func (h *Handler) StreamControl(w http.ResponseWriter, r *http.Request) {
	id := model.ID(r.PathValue("id"))

	ctx := r.Context()
	var err error
	fallback := application.MessageStreamStartFailed
	switch r.PathValue("action") {
	case "start":
		err = h.videoSvc.StartStream(ctx, id)
	case "stop":
		err = h.videoSvc.StopStream(ctx, id)
		fallback = application.MessageStreamStopFailed
	case "restart":
		err = h.videoSvc.RestartStream(ctx, id)
	default:
		h.NotFound(w, r)
		return
	}

	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.logger.Warn("stream control failed", "id", id, "action", r.PathValue("action"), "error", err)
		h.flash(r.Context(), model.NotificationError, application.UserMessage(err, fallback))
	}
	redirect(w, r, videoPath(id, "?autostart=0"))
}

func formFile(r *http.Request, name string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[name]
	if len(files) == 0 || files[0].Filename == "" {
		return nil
	}
	return files[0]
}

func fileSource(fh *multipart.FileHeader) model.FileSource {
	return model.FileSource{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

func removeMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
