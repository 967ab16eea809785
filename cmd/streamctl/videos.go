package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/streamhub/internal/application"
	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

func (c *cli) videosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List, upload and manage videos",
	}
	cmd.AddCommand(
		c.videosListCmd(),
		c.videosMineCmd(),
		c.videosGetCmd(),
		c.videosUploadCmd(),
		c.videosUpdateCmd(),
		c.videosDeleteCmd(),
	)
	return cmd
}

func (c *cli) videosListCmd() *cobra.Command {
	var search, sort string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			videos, err := c.videos.List(cmd.Context(), model.VideoQuery{Search: search, Sort: model.VideoSort(sort)})
			if err != nil {
				return fail(err, application.MessageVideosLoadFailed)
			}
			return c.emitVideos(videos)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "search term")
	cmd.Flags().StringVar(&sort, "sort", string(model.SortNewest), "sort order: newest|oldest|popular")
	return cmd
}

func (c *cli) videosMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			videos, err := c.videos.Mine(cmd.Context())
			if err != nil {
				return fail(err, application.MessageVideosLoadFailed)
			}
			return c.emitVideos(videos)
		},
	}
}

func (c *cli) videosGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			video, err := c.videos.Get(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return fail(err, application.MessageVideoLoadFailed)
			}
			return c.emitVideo(video)
		},
	}
}

func (c *cli) videosUploadCmd() *cobra.Command {
	var title, description, thumbnail string

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := localFile(args[0])
			if err != nil {
				return err
			}
			up := model.VideoUpload{Title: title, Description: description, File: file}
			if thumbnail != "" {
				thumb, err := localFile(thumbnail)
				if err != nil {
					return err
				}
				up.Thumbnail = &thumb
			}

			video, err := c.videos.Upload(cmd.Context(), up, c.progress())
			if err != nil {
				return fail(err, application.MessageUploadFailed)
			}
			return c.emitVideo(video)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "video title (required)")
	cmd.Flags().StringVar(&description, "description", "", "video description, markdown")
	cmd.Flags().StringVar(&thumbnail, "thumbnail", "", "thumbnail image file")
	return cmd
}

func (c *cli) videosUpdateCmd() *cobra.Command {
	var title, description, thumbnail string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change the title, description or thumbnail of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.VideoPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if thumbnail != "" {
				thumb, err := localFile(thumbnail)
				if err != nil {
					return err
				}
				patch.Thumbnail = &thumb
			}

			video, err := c.videos.Update(cmd.Context(), model.ID(args[0]), patch)
			if err != nil {
				return fail(err, application.MessageUpdateFailed)
			}
			return c.emitVideo(video)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&thumbnail, "thumbnail", "", "new thumbnail image file")
	return cmd
}

func (c *cli) videosDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.ID(args[0])
			if err := c.videos.Delete(cmd.Context(), id); err != nil {
				return fail(err, application.MessageDeleteFailed)
			}
			return c.emit(map[string]string{"deleted": id.String()}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted video %s\n", id)
				return err
			})
		},
	}
}

// localFile describes a file on disk for upload. The file is reopened for
// every attempt.
func localFile(path string) (model.FileSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.FileSource{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return model.FileSource{}, fmt.Errorf("%s is a directory", path)
	}
	return model.FileSource{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// progress reports upload progress on stderr in whole percents.
func (c *cli) progress() model.ProgressFunc {
	last := int64(-1)
	return func(sent, total int64) {
		if total <= 0 {
			return
		}
		pct := sent * 100 / total
		if pct == last {
			return
		}
		last = pct
		fmt.Fprintf(c.errOut, "\ruploading %3d%%", pct)
		if sent >= total {
			fmt.Fprintln(c.errOut)
		}
	}
}

type videoOut struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Username    string    `json:"username,omitempty"`
	Views       int64     `json:"views"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toVideoOut(v model.Video) videoOut {
	return videoOut{
		ID:          v.ID.String(),
		Title:       v.Title,
		Description: v.Description,
		Username:    v.Username,
		Views:       v.Views,
		Thumbnail:   v.Thumbnail,
		CreatedAt:   v.CreatedAt,
	}
}

func (c *cli) emitVideos(videos []model.Video) error {
	out := make([]videoOut, 0, len(videos))
	for _, v := range videos {
		out = append(out, toVideoOut(v))
	}
	return c.emit(out, func(w io.Writer) error {
		if len(videos) == 0 {
			_, err := fmt.Fprintln(w, "No videos found.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tOWNER\tVIEWS\tUPLOADED")
		for _, v := range videos {
			uploaded := "-"
			if !v.CreatedAt.IsZero() {
				uploaded = v.CreatedAt.Local().Format(time.DateOnly)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", v.ID, v.Title, v.Username, v.Views, uploaded)
		}
		return tw.Flush()
	})
}

func (c *cli) emitVideo(v *model.Video) error {
	return c.emit(toVideoOut(*v), func(w io.Writer) error {
		fmt.Fprintf(w, "ID:       %s\n", v.ID)
		fmt.Fprintf(w, "Title:    %s\n", v.Title)
		if v.Username != "" {
			fmt.Fprintf(w, "Owner:    %s\n", v.Username)
		}
		fmt.Fprintf(w, "Views:    %d\n", v.Views)
		if !v.CreatedAt.IsZero() {
			fmt.Fprintf(w, "Uploaded: %s\n", v.CreatedAt.Local().Format(time.RFC1123))
		}
		if v.Description != "" {
			fmt.Fprintf(w, "\n%s\n", v.Description)
		}
		return nil
	})
}
