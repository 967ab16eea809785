package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/streamhub/internal/application"
	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passwordStdin {
				var err error
				if password, err = readLine(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
			}

			user, err := c.auth.Login(cmd.Context(), email, password)
			if err != nil {
				return fail(err, application.MessageLoginFailed)
			}
			return c.emit(userJSON(user), func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Logged in as %s\n", user.DisplayName())
				return err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from standard input")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var reg model.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if reg.Password2 == "" {
				reg.Password2 = reg.Password
			}
			if err := c.auth.Register(cmd.Context(), reg); err != nil {
				return fail(err, application.MessageRegisterFailed)
			}
			return c.emit(map[string]string{"username": reg.Username, "email": reg.Email}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Registered %s. Run \"streamctl login\" to sign in.\n", reg.Username)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&reg.Username, "username", "", "username")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password, at least 8 characters")
	cmd.Flags().StringVar(&reg.Password2, "confirm-password", "", "password confirmation (defaults to --password)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and clear local credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.auth.Logout(cmd.Context()); err != nil {
				return fail(err, "Logout failed")
			}
			return c.emit(map[string]bool{"logged_out": true}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, application.MessageLogoutSuccess)
				return err
			})
		},
	}
}

type statusOutput struct {
	Active          bool       `json:"active"`
	User            *userOut   `json:"user"`
	TokenSecret     string     `json:"token_secret"`
	AccessSubject   string     `json:"access_subject,omitempty"`
	AccessExpiresAt *time.Time `json:"access_expires_at,omitempty"`
}

type userOut struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func userJSON(u *model.User) *userOut {
	if u == nil {
		return nil
	}
	return &userOut{ID: u.ID.String(), Username: u.Username, Email: u.Email}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.auth.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := statusOutput{
				Active:      st.Active,
				User:        userJSON(st.User),
				TokenSecret: st.SecretState.String(),
			}
			if st.Access != nil {
				out.AccessSubject = st.Access.Subject
				out.AccessExpiresAt = st.Access.ExpiresAt
			}

			return c.emit(out, func(w io.Writer) error {
				if !st.Active {
					fmt.Fprintln(w, "Not logged in")
				} else if st.User != nil {
					fmt.Fprintf(w, "Logged in as %s <%s>\n", st.User.DisplayName(), st.User.Email)
				} else {
					fmt.Fprintln(w, "Logged in")
				}
				fmt.Fprintf(w, "Token secret: %s\n", out.TokenSecret)
				if out.AccessExpiresAt != nil {
					state := "valid"
					if time.Now().After(*out.AccessExpiresAt) {
						state = "expired, will refresh on next call"
					}
					fmt.Fprintf(w, "Access credential: %s until %s\n", state, out.AccessExpiresAt.Local().Format(time.RFC1123))
				}
				return nil
			})
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
