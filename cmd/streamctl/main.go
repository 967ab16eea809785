// Command streamctl drives the video backend from the command line. It shares
// the session storage with the streamhub GUI, so a login in one is visible in
// the other.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/streamhub/internal/adapter/driven/notify"
	"github.com/ericfisherdev/streamhub/internal/application"
	"github.com/ericfisherdev/streamhub/internal/bootstrap"
	"github.com/ericfisherdev/streamhub/internal/config"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	c := &cli{out: out, errOut: errOut}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if closeErr := c.close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

// cli holds what every command needs. The stack is opened lazily so that
// help and flag errors work without any configuration.
type cli struct {
	out    io.Writer
	errOut io.Writer
	format string

	logger *slog.Logger
	stack  *bootstrap.Stack
	auth   *application.AuthService
	videos *application.VideoService
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "streamctl",
		Short:         "Command-line client for the StreamHub video backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&c.format, "output", "o", formatText, "output format: text|json")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.statusCmd(),
		c.videosCmd(),
		c.streamCmd(),
	)
	return root
}

func (c *cli) open(ctx context.Context) error {
	if c.format != formatText && c.format != formatJSON {
		return fmt.Errorf("--output must be %s or %s, got %q", formatText, formatJSON, c.format)
	}

	// A missing .env is fine.
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	c.logger = slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: cfg.LogLevel}))
	notifier := notify.NewLog(c.logger)

	c.stack, err = bootstrap.Build(ctx, cfg, bootstrap.Options{Notifier: notifier, Logger: c.logger})
	if err != nil {
		return err
	}
	c.auth = application.NewAuthService(c.stack.Backend, notifier, c.logger)
	c.videos = application.NewVideoService(c.stack.Backend, notifier, c.logger)
	return nil
}

func (c *cli) close() error {
	if c.stack == nil {
		return nil
	}
	err := c.stack.Close()
	c.stack = nil
	return err
}

// emit writes v as indented JSON, or calls text for the text format.
func (c *cli) emit(v any, text func(w io.Writer) error) error {
	if c.format == formatJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(c.out)
}

// userError carries the message shown to the user while keeping the cause
// available to errors.Is and errors.As.
type userError struct {
	msg   string
	cause error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.cause }

func fail(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var uErr *userError
	if errors.As(err, &uErr) {
		return err
	}
	return &userError{msg: application.UserMessage(err, fallback), cause: err}
}
