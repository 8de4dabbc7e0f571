package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dataflow/console/internal/core/domain"
)

// readPassword takes the flag value, or the first line of stdin when the flag
// is empty.
func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("a password is required")
	}
	return line, nil
}

func newSignInCmd(rt *runtime) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Signs in and stores the session token.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			if err := rt.app.Session.SignIn(cmd.Context(), email, pw); err != nil {
				return err
			}
			u, _ := rt.app.Session.User()
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s plan)\n", u.Email, u.Plan)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password, read from stdin when omitted")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSignUpCmd(rt *runtime) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Creates an account and signs in.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			if err := rt.app.Session.SignUp(cmd.Context(), email, pw, name); err != nil {
				return err
			}
			u, _ := rt.app.Session.User()
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s. You are on the %s plan.\n", u.Name, u.Plan)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password, read from stdin when omitted")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newSignOutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forgets the stored session token.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.app.Session.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoAmICmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Prints the signed-in account.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, ok := rt.app.Session.User()
			if !ok {
				return domain.ErrNotAuthenticated
			}
			expires := "-"
			if exp, ok := rt.app.Session.TokenExpiry(cmd.Context()); ok {
				expires = exp.Local().Format(time.RFC1123)
			}
			return rt.emit(cmd.OutOrStdout(), u, table.Row{"Field", "Value"}, []table.Row{
				{"ID", u.ID},
				{"Email", u.Email},
				{"Name", u.Name},
				{"Plan", u.Plan},
				{"Can scrape", u.Plan.CanScrape()},
				{"Token expires", expires},
			})
		},
	}
}
