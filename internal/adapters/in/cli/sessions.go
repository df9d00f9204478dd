package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ome/omero-render/internal/adapters/in/cli/session"
	"github.com/ome/omero-render/internal/adapters/in/cli/ui/components"
)

const (
	sessionsServerColumnWidth  = 40
	sessionsUserColumnWidth    = 16
	sessionsGroupColumnWidth   = 16
	sessionsCreatedColumnWidth = 16
	sessionsActiveColumnWidth  = 8
)

var sessionsTableColumns = []components.TableColumn{
	{Title: "SERVER", Width: sessionsServerColumnWidth},
	{Title: "USER", Width: sessionsUserColumnWidth},
	{Title: "GROUP", Width: sessionsGroupColumnWidth},
	{Title: "CREATED", Width: sessionsCreatedColumnWidth},
	{Title: "ACTIVE", Width: sessionsActiveColumnWidth},
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		Long: `Log in to an OMERO.web server and save the session key so that later
commands can reuse it. With --key the given session is joined instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := a.log.WithContext(cmd.Context())
			client, sess, err := a.open(ctx, a.opts.key == "")
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			out := cmd.OutOrStdout()
			if err := cliWriteLine(out, cliRenderSuccess("Logged in to "+client.BaseURL())); err != nil {
				return err
			}
			lines := []string{"user: " + sess.UserName, "session key: " + sess.Key}
			if sess.GroupName != "" {
				lines = append(lines, "group: "+sess.GroupName)
			}
			for _, line := range lines {
				if err := cliWriteLine(out, cliRenderListItem(line)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Close the session and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := a.log.WithContext(cmd.Context())
			out := cmd.OutOrStdout()

			store, err := session.Load(a.sessionsPath())
			if err != nil {
				return err
			}
			t, err := a.target(store)
			if err != nil {
				return err
			}
			if t.Key == "" {
				return cliWriteLine(out, cliRenderMuted("No session for "+t.URL))
			}

			client := a.newClient(t)
			defer client.Close(ctx)
			if _, err := client.Join(ctx, t.Key); err != nil {
				a.log.Warn().Err(err).Str("url", t.URL).Msg("Could not join session, forgetting it locally")
			} else if err := client.Logout(ctx); err != nil {
				a.log.Warn().Err(err).Str("url", t.URL).Msg("Failed to close session on the server")
			}

			store.Remove(t.URL)
			if err := session.Save(a.sessionsPath(), store); err != nil {
				return err
			}
			return cliWriteLine(out, cliRenderSuccess("Logged out of "+t.URL))
		},
	}
}

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := session.Load(a.sessionsPath())
			if err != nil {
				return err
			}
			return runSessionsList(cmd.OutOrStdout(), store, a.now())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "use <server>",
		Short: "Make a saved session the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.Load(a.sessionsPath())
			if err != nil {
				return err
			}
			u, err := session.NormalizeURL(args[0], 0)
			if err != nil {
				return err
			}
			if err := store.SetActive(u); err != nil {
				return err
			}
			if err := session.Save(a.sessionsPath(), store); err != nil {
				return err
			}
			return cliWriteLine(cmd.OutOrStdout(), cliRenderSuccess("Active session: "+u))
		},
	})

	return cmd
}

func runSessionsList(out io.Writer, store *session.Store, now time.Time) error {
	entries := store.List()
	if len(entries) == 0 {
		return cliWriteLine(out, cliRenderEmptyState("No saved sessions"))
	}

	if err := cliWriteLine(out, cliRenderTitle("Sessions")); err != nil {
		return err
	}

	table := components.NewTable(components.WithColumns(sessionsTableColumns))
	for _, e := range entries {
		active := ""
		if e.URL == store.Active {
			active = components.Badge("active")
		}
		created := "-"
		if !e.Created.IsZero() {
			created = strings.TrimSpace(humanize.RelTime(e.Created, now, "ago", "from now"))
		}
		table.AddRow(e.URL, e.User, e.Group, created, active)
	}

	if err := cliWriteLine(out, table.Render()); err != nil {
		return err
	}
	return cliWriteLine(out, cliRenderInfo(fmt.Sprintf("Total sessions: %d", len(entries))))
}
