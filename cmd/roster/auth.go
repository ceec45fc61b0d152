package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naveenspark/roster/pkg/client"
	"github.com/naveenspark/roster/pkg/domain"
)

// authJSON is the --json shape of a sign-in or sign-out result.
type authJSON struct {
	OK      bool               `json:"ok"`
	Status  int                `json:"status,omitempty"`
	Message string             `json:"message"`
	Errors  domain.FieldErrors `json:"errors,omitempty"`
}

func toAuthJSON(res client.AuthResult) authJSON {
	return authJSON{OK: res.OK(), Status: res.Status, Message: res.Message, Errors: res.Fields}
}

func newLoginCmd(c *cli) *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = c.prompt("Email", false); err != nil {
					return err
				}
			}
			var password string
			if passwordStdin {
				password, err = readLine(c.in)
			} else {
				password, err = c.prompt("Password", true)
			}
			if err != nil {
				return err
			}

			res, err := c.client.SignIn(cmd.Context(), domain.Credentials{Email: strings.TrimSpace(email), Password: password})
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			c.printResult(toAuthJSON(res), func() {
				fmt.Fprintln(c.out, res.Message)
			})
			if !res.OK() {
				c.printFieldErrors(res.Fields)
				return fmt.Errorf("login rejected: %s", res.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, ok := c.client.Session().Token(); !ok {
				c.printResult(authJSON{OK: true, Message: "Already logged out."}, func() {
					fmt.Fprintln(c.out, "Already logged out.")
				})
				return nil
			}
			res, err := c.client.SignOut(cmd.Context())
			if err != nil {
				// The local token is gone either way.
				fmt.Fprintf(c.errOut, "warning: server sign-out failed: %v\n", err)
				c.printResult(authJSON{OK: true, Message: "Logged out locally."}, func() {
					fmt.Fprintln(c.out, "Logged out locally.")
				})
				return nil
			}
			msg := res.Message
			if msg == "" {
				msg = "Logged out."
			}
			c.printResult(toAuthJSON(res), func() {
				fmt.Fprintln(c.out, msg)
			})
			return nil
		},
	}
}

// readLine reads one line from r without the trailing newline. A final
// line without a newline is accepted.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
