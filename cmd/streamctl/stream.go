package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/streamhub/internal/application"
	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

func (c *cli) streamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Control a video's image stream",
	}

	actions := []struct {
		use, short, done, fallback string
		do                         func(*cobra.Command, model.ID) error
	}{
		{"start", "Start the stream", "started", application.MessageStreamStartFailed,
			func(cmd *cobra.Command, id model.ID) error { return c.videos.StartStream(cmd.Context(), id) }},
		{"stop", "Stop the stream", "stopped", application.MessageStreamStopFailed,
			func(cmd *cobra.Command, id model.ID) error { return c.videos.StopStream(cmd.Context(), id) }},
		{"restart", "Stop and start the stream", "restarted", application.MessageStreamStartFailed,
			func(cmd *cobra.Command, id model.ID) error { return c.videos.RestartStream(cmd.Context(), id) }},
	}
	for _, a := range actions {
		cmd.AddCommand(&cobra.Command{
			Use:   a.use + " ID",
			Short: a.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id := model.ID(args[0])
				if err := a.do(cmd, id); err != nil {
					return fail(err, a.fallback)
				}
				return c.emit(map[string]string{"id": id.String(), "stream": a.done}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Stream %s for video %s\n", a.done, id)
					return err
				})
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "url ID",
		Short: "Print the backend stream URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			u := c.videos.StreamURL(model.ID(args[0]))
			return c.emit(map[string]string{"url": u}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, u)
				return err
			})
		},
	})
	return cmd
}
