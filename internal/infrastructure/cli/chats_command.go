package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scribeapp/scribe/internal/app"
	"github.com/scribeapp/scribe/internal/domain"
)

func newChatsCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Manage saved chat sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listChats(cmd.OutOrStdout(), container)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listChats(cmd.OutOrStdout(), container)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print a session transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showChat(cmd.OutOrStdout(), container, args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Set a session title (stops auto-titling)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return renameChat(cmd.OutOrStdout(), container, args[0], strings.Join(args[1:], " "))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSessionID(container, args[0])
			if err != nil {
				return err
			}
			if err := container.Sessions.Delete(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		},
	})

	var dest string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export all sessions as JSONL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Sessions.ExportJSON(dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", dest)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&dest, "output", "o", "scribe-chats.jsonl", "Destination file")
	cmd.AddCommand(exportCmd)

	return cmd
}

func listChats(out io.Writer, container *app.Container) error {
	sessions, err := container.Sessions.List()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "no saved sessions")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(out, "%s  %s  %2d turns  %s\n",
			shortID(s.ID), s.UpdatedAt.Format("2006-01-02 15:04"), len(s.Turns), s.Title)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func showChat(out io.Writer, container *app.Container, id string) error {
	full, err := resolveSessionID(container, id)
	if err != nil {
		return err
	}
	session, err := container.Sessions.Get(full)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (%s)\n", session.Title, session.ID)
	for _, turn := range session.Turns {
		label := "You"
		if turn.Role == domain.RoleAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(out, "\n[%s] %s:\n%s\n", turn.Timestamp.Format("15:04"), label, turn.Content)
	}
	return nil
}

func renameChat(out io.Writer, container *app.Container, id, title string) error {
	full, err := resolveSessionID(container, id)
	if err != nil {
		return err
	}
	session, err := container.Sessions.Get(full)
	if err != nil {
		return err
	}
	session.Title = strings.TrimSpace(title)
	session.CustomTitle = true
	if err := container.Sessions.Save(session); err != nil {
		return err
	}
	fmt.Fprintf(out, "renamed %s to %q\n", shortID(full), session.Title)
	return nil
}

// resolveSessionID accepts a full id or an unambiguous prefix.
func resolveSessionID(container *app.Container, id string) (string, error) {
	sessions, err := container.Sessions.List()
	if err != nil {
		return "", err
	}
	var match string
	for _, s := range sessions {
		if s.ID == id {
			return id, nil
		}
		if strings.HasPrefix(s.ID, id) {
			if match != "" {
				return "", fmt.Errorf("session id %q is ambiguous", id)
			}
			match = s.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no session matching %q", id)
	}
	return match, nil
}
