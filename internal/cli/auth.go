package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"musicworks/internal/registration"
	"musicworks/pkg/domain"
)

func newAuthCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Args:  cobra.NoArgs,
		Short: "Sign in, sign up and manage the stored session",
	}
	cmd.AddCommand(
		newLoginCommand(e),
		newRegisterCommand(e),
		newLogoutCommand(e),
		newWhoamiCommand(e),
	)
	return cmd
}

func newLoginCommand(e *env) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Args:  cobra.NoArgs,
		Short: "Sign in and store the session tokens",
		Long:  "Sign in with email and password. Without --password the password is read from the first line of stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if password == "" {
				var err error
				if password, err = readLine(in); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}
			user, err := e.app.Auth.Login(cmd.Context(), domain.LoginCredentials{
				Email:    strings.TrimSpace(email),
				Password: password,
			})
			if err != nil {
				return actionError(err, e.app.Auth.Snapshot().Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCommand(e *env) *cobra.Command {
	var form registration.AccountForm
	cmd := &cobra.Command{
		Use:   "register",
		Args:  cobra.NoArgs,
		Short: "Create an account and sign in",
		Long:  "Create an account. Missing --password and --confirm-password values are read from stdin, one per line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if form.Password == "" {
				if form.Password, err = readLine(in); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}
			if form.ConfirmPassword == "" {
				if form.ConfirmPassword, err = readLine(in); err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read password confirmation: %w", err)
				}
			}
			user, err := form.Submit(cmd.Context(), e.app.Auth)
			if err != nil {
				var verr *registration.ValidationError
				if errors.As(err, &verr) {
					return verr
				}
				return actionError(err, e.app.Auth.Snapshot().Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s %s <%s>\n", user.FirstName, user.LastName, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "last name")
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "repeat the password")
	return cmd
}

func newLogoutCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Args:  cobra.NoArgs,
		Short: "Sign out and forget the stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Auth.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Args:  cobra.NoArgs,
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e.app.Auth.RestoreSession(ctx)
			snap := e.app.Auth.Snapshot()
			if !snap.IsAuthenticated || snap.User == nil {
				if snap.Error != "" {
					return errors.New(snap.Error)
				}
				return errors.New("not signed in")
			}
			out := cmd.OutOrStdout()
			u := snap.User
			fmt.Fprintf(out, "%s %s <%s>\n", u.FirstName, u.LastName, u.Email)
			fmt.Fprintf(out, "Role: %s\n", u.Role)
			if claims, err := e.app.Auth.Session(ctx); err == nil && !claims.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "Token expires: %s\n", claims.ExpiresAt.Local().Format(time.RFC3339))
			}
			return nil
		},
	}
}

// readLine returns the next line of r without its line ending.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
