package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rankrocket/calendar-stacker/internal/api"
	"github.com/rankrocket/calendar-stacker/internal/config"
	"github.com/rankrocket/calendar-stacker/internal/credential"
)

func init() {
	config.LoadEnv(".env")
}

func main() {
	var (
		baseURL = config.EnvString("STACKER_API_URL", "http://localhost:8080")
		token   = os.Getenv("STACKER_API_TOKEN")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "stackerctl",
		Short: "Admin CLI for the calendar stacker backend",
	}
	root.PersistentFlags().StringVar(&baseURL, "api-url", baseURL, "Backend base URL (env STACKER_API_URL)")
	root.PersistentFlags().StringVar(&token, "api-token", token, "Bearer token for the backend (env STACKER_API_TOKEN)")

	// The manager is built lazily so flag values are resolved first.
	newManager := func() *credential.Manager {
		backend := api.NewClient(baseURL, token, timeout)
		notifier := credential.NotifierFunc(func(level credential.Level, message string) {
			if level == credential.LevelError {
				fmt.Fprintln(os.Stderr, message)
				return
			}
			fmt.Println(message)
		})
		return credential.NewManager(backend, credential.URLOpenerFunc(openBrowser), notifier)
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List OAuth credentials with their token status",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newManager()
			ctx := cmd.Context()
			if err := m.Store.RefreshClients(ctx); err != nil {
				return err
			}
			if err := m.Store.RefreshCredentials(ctx); err != nil {
				return err
			}
			printRows(m.Rows(time.Now()))
			return nil
		},
	}

	clientsCmd := &cobra.Command{
		Use:   "clients",
		Short: "List managed clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newManager()
			if err := m.Store.RefreshClients(cmd.Context()); err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL")
			for _, c := range m.Store.Clients() {
				fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Email)
			}
			return w.Flush()
		},
	}

	var clientID, googleClientID, googleClientSecret string
	var scopes []string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an OAuth credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newManager()
			ctx := cmd.Context()
			if err := m.OpenForCreate(ctx); err != nil {
				return err
			}
			draft := m.Form.Draft()
			applyFlags(&draft, clientID, googleClientID, googleClientSecret, scopes)
			m.Form.SetDraft(draft)
			return m.Submit(ctx)
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update an OAuth credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newManager()
			ctx := cmd.Context()
			if err := m.OpenForEdit(ctx, args[0]); err != nil {
				return err
			}
			draft := m.Form.Draft()
			applyFlags(&draft, clientID, googleClientID, googleClientSecret, scopes)
			m.Form.SetDraft(draft)
			return m.Submit(ctx)
		},
	}

	for _, cmd := range []*cobra.Command{createCmd, editCmd} {
		cmd.Flags().StringVar(&clientID, "client-id", "", "Managed client id")
		cmd.Flags().StringVar(&googleClientID, "google-client-id", "", "Google OAuth client id")
		cmd.Flags().StringVar(&googleClientSecret, "google-client-secret", "", "Google OAuth client secret")
		cmd.Flags().StringArrayVar(&scopes, "scope", nil, "OAuth scope (repeatable)")
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an OAuth credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return newManager().Delete(cmd.Context(), id)
		},
	}

	authorizeCmd := &cobra.Command{
		Use:   "authorize <id>",
		Short: "Open the Google consent flow for a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return newManager().Authorize(cmd.Context(), id)
		},
	}

	root.AddCommand(listCmd, clientsCmd, createCmd, editCmd, deleteCmd, authorizeCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func applyFlags(draft *credential.Draft, clientID, googleClientID, googleClientSecret string, scopes []string) {
	if clientID != "" {
		draft.ClientID = clientID
	}
	if googleClientID != "" {
		draft.GoogleClientID = googleClientID
	}
	if googleClientSecret != "" {
		draft.GoogleClientSecret = googleClientSecret
	}
	if len(scopes) > 0 {
		draft.ScopesText = strings.Join(scopes, "\n")
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid credential id %q", arg)
	}
	return id, nil
}

func printRows(rows []credential.Row) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCLIENT\tGOOGLE CLIENT ID\tSTATUS\tEXPIRES\tPENDING")
	for _, row := range rows {
		if row.EmptyState {
			fmt.Fprintf(w, "-\t%s\t-\t-\t-\t-\n", row.ClientName)
			continue
		}
		pending := ""
		if row.Pending {
			pending = "authorizing"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			row.ID, row.ClientName, row.GoogleClientID, row.Status.Label(), row.Expiry, pending)
	}
	w.Flush()
}

// openBrowser hands the consent URL to the platform's default browser without
// waiting for it.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}
	return nil
}
