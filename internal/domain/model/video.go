package model

import (
	"io"
	"time"
)

// VideoSort selects the ordering of a video listing.
type VideoSort string

const (
	SortNewest  VideoSort = "newest"
	SortOldest  VideoSort = "oldest"
	SortPopular VideoSort = "popular"
)

// Valid reports whether s is a sort order the backend understands.
func (s VideoSort) Valid() bool {
	switch s {
	case SortNewest, SortOldest, SortPopular:
		return true
	}
	return false
}

// Video is a video as listed by the backend.
type Video struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	FilePath    string    `json:"file_path"`
	Username    string    `json:"username"`
	Views       int64     `json:"views"`
	CreatedAt   time.Time `json:"created_at"`
}

// VideoQuery filters and orders a video listing.
type VideoQuery struct {
	Search string
	Sort   VideoSort
}

// FileSource describes a file to upload. Open may be called more than once
// when a request has to be re-sent, so it must return a fresh reader each time.
// Size is -1 when unknown.
type FileSource struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// VideoUpload is the payload for creating a video.
type VideoUpload struct {
	Title       string
	Description string
	File        FileSource
	Thumbnail   *FileSource
}

// VideoPatch is a partial update. Nil fields are left unchanged.
type VideoPatch struct {
	Title       *string
	Description *string
	Thumbnail   *FileSource
}

// Empty reports whether the patch changes nothing.
func (p VideoPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Thumbnail == nil
}

// ProgressFunc receives upload progress in bytes. total is -1 when unknown.
type ProgressFunc func(sent, total int64)

// Stream is an open continuously-updating image stream.
type Stream struct {
	ContentType string
	Body        io.ReadCloser
}
