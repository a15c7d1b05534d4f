package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/neetmock/internal/auth"
	"github.com/pavelanni/neetmock/internal/remote"
	"github.com/pavelanni/neetmock/internal/runner"
	"github.com/pavelanni/neetmock/internal/scoring"
)

// newRemoteClient loads the saved credential and returns a client for the
// configured server.
func newRemoteClient(v *viper.Viper) (*remote.Client, *remote.CredentialStore, error) {
	creds := remote.NewCredentialStore(v.GetString("credentials"))
	if _, err := creds.Load(); err != nil {
		slog.Warn("ignoring unreadable credentials", "path", v.GetString("credentials"), "error", err)
	}
	client, err := remote.NewClient(v.GetString("server"), creds)
	if err != nil {
		return nil, nil, err
	}
	return client, creds, nil
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the persistence service",
		RunE:  runRegister,
	}
	f := cmd.Flags()
	f.String("name", "", "Your name")
	f.String("email", "", "Email address")
	f.String("password", "", "Password (prompted when empty)")
	addClientFlags(cmd)
	return cmd
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in so finished tests are saved",
		RunE:  runLogin,
	}
	f := cmd.Flags()
	f.String("email", "", "Email address")
	f.String("password", "", "Password (prompted when empty)")
	addClientFlags(cmd)
	return cmd
}

func logoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved login",
		RunE:  runLogout,
	}
	addClientFlags(cmd)
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your saved tests",
		RunE:  runHistory,
	}
	f := cmd.Flags()
	f.Int("page", 1, "Page number")
	f.Int("limit", 10, "Tests per page")
	addClientFlags(cmd)
	return cmd
}

func runRegister(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	client, _, err := newRemoteClient(v)
	if err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)
	name := valueOrPrompt(in, v.GetString("name"), "Name: ")
	email := valueOrPrompt(in, v.GetString("email"), "Email: ")
	password := valueOrPrompt(in, v.GetString("password"), "Password: ")

	ctx, cancel := context.WithTimeout(cmd.Context(), remote.DefaultTimeout)
	defer cancel()
	ar, err := client.Register(ctx, name, email, password)
	if err != nil {
		return describeAuthError(err)
	}
	fmt.Printf("Registered %s <%s>.\n", ar.Name, ar.Email)
	return nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	client, _, err := newRemoteClient(v)
	if err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)
	email := valueOrPrompt(in, v.GetString("email"), "Email: ")
	password := valueOrPrompt(in, v.GetString("password"), "Password: ")

	ctx, cancel := context.WithTimeout(cmd.Context(), remote.DefaultTimeout)
	defer cancel()
	ar, err := client.Login(ctx, email, password)
	if err != nil {
		return describeAuthError(err)
	}
	fmt.Printf("Signed in as %s <%s>.\n", ar.Name, ar.Email)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	client, _, err := newRemoteClient(v)
	if err != nil {
		return err
	}
	if err := client.Logout(); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	client, creds, err := newRemoteClient(v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), remote.DefaultTimeout)
	defer cancel()
	hp, err := client.History(ctx, v.GetInt("page"), v.GetInt("limit"))
	if err != nil {
		return describeAuthError(err)
	}

	if c := creds.Current(); c != nil {
		fmt.Printf("History for %s <%s>\n", c.Name, c.Email)
	}
	st := scoring.History(*hp)
	fmt.Printf("Tests taken: %d  Average: %.1f%%  Best: %.1f%%\n\n", st.Taken, st.Average, st.Best)
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tSCORE\tPERCENT\tACCURACY\tTIME")
	for _, t := range hp.History {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%.1f%%\t%.1f%%\t%s\n",
			t.CreatedAt.Local().Format(time.DateTime), t.TestType, t.Score, t.MaxScore,
			t.Percentage, t.Accuracy, runner.FormatClock(t.TimeTaken))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("Page %d of %d (%d tests)\n", hp.Pagination.Page, hp.Pagination.Pages, hp.Pagination.Total)
	return nil
}

func valueOrPrompt(in *bufio.Reader, value, prompt string) string {
	if value != "" {
		return value
	}
	fmt.Print(prompt)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func describeAuthError(err error) error {
	var ve *auth.ValidationError
	switch {
	case errors.As(err, &ve):
		return fmt.Errorf("invalid input: %w", err)
	case errors.Is(err, remote.ErrNotLoggedIn):
		return errors.New("not logged in: run `neetmock login` first")
	case errors.Is(err, remote.ErrUnauthorized):
		return fmt.Errorf("authentication failed, please log in again: %w", err)
	case errors.Is(err, remote.ErrEmailTaken):
		return errors.New("an account with this email already exists")
	}
	return err
}
