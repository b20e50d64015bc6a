package cli

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scribeapp/scribe/internal/app"
)

func newRunCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the hotkey daemon",
		Long:  "Registers the global hotkey and waits for triggers. Chat sessions opened by a trigger accept follow-up messages on this terminal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, container)
		},
	}
}

func runDaemon(cmd *cobra.Command, container *app.Container) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer container.Close()

	out := cmd.OutOrStdout()
	log := container.Logger

	if err := container.Listener.Rebind(container.Config.Hotkey); err != nil {
		// Keep running: chat follow-ups on open sessions still work, and the
		// user can fix the binding and restart.
		log.Error("hotkey registration failed", err, map[string]interface{}{
			"binding": container.Config.Hotkey,
		})
		fmt.Fprintf(out, "warning: could not register hotkey %q: %v\n", container.Config.Hotkey, err)
	} else {
		fmt.Fprintf(out, "scribe is running. Press %s over selected text to begin.\n", container.Config.Hotkey)
	}
	fmt.Fprintln(out, "Type a message to continue the active chat, /open <id> to resume a saved one, or /quit to exit.")

	go container.Router.Run(ctx)

	var activeSession string
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nshutting down")
			return nil

		case <-container.Listener.Triggers():
			sessionID, err := container.Dispatcher.HandleTrigger(ctx)
			if err != nil {
				log.Error("trigger handling failed", err, nil)
				continue
			}
			if sessionID != "" {
				activeSession = sessionID
			}

		case line, ok := <-container.Input.Lines():
			if !ok {
				return nil
			}
			if done := handleChatLine(container, out, &activeSession, line); done {
				return nil
			}
		}
	}
}

// handleChatLine routes one typed line: slash commands first, then the
// active chat session. Returns true when the daemon should exit.
func handleChatLine(container *app.Container, out io.Writer, activeSession *string, line string) bool {
	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case "":
		return false
	case "/quit", "/exit":
		return true
	case "/new":
		*activeSession = ""
		fmt.Fprintln(out, "active chat cleared; the next trigger opens a fresh session")
		return false
	case "/open":
		fmt.Fprintln(out, "usage: /open <session-id>")
		return false
	}
	if id, ok := strings.CutPrefix(trimmed, "/open "); ok {
		resumeSession(container, out, activeSession, strings.TrimSpace(id))
		return false
	}
	if strings.HasPrefix(trimmed, "/") {
		fmt.Fprintf(out, "unknown command %s (try /open, /new or /quit)\n", trimmed)
		return false
	}
	if *activeSession == "" {
		fmt.Fprintln(out, "no active chat; trigger the hotkey first")
		return false
	}
	if err := container.Dispatcher.ChatSend(*activeSession, trimmed); err != nil {
		fmt.Fprintf(out, "could not send message: %v\n", err)
	}
	return false
}

// resumeSession reopens a saved chat so typed messages continue it under its
// original session id. Accepts the same unambiguous id prefixes as the
// chats commands.
func resumeSession(container *app.Container, out io.Writer, activeSession *string, id string) {
	resolved, err := resolveSessionID(container, id)
	if err != nil {
		fmt.Fprintf(out, "could not open session: %v\n", err)
		return
	}
	session, err := container.Chats.Load(resolved)
	if err != nil {
		fmt.Fprintf(out, "could not open session: %v\n", err)
		return
	}
	container.Surface.OpenSession(session)
	*activeSession = session.ID
}
