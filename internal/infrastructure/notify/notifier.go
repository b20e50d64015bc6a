// Package notify delivers short desktop notices through whatever
// notification tool the host platform offers.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/scribeapp/scribe/internal/ports"
)

// DesktopNotifier shells out to the platform notification command and falls
// back to the log when none is available. Probing happens once at
// construction so Notify stays cheap on the trigger path.
type DesktopNotifier struct {
	log  ports.Logger
	send func(title, message string) error
}

// NewDesktopNotifier probes for a notification command.
func NewDesktopNotifier(log ports.Logger) *DesktopNotifier {
	n := &DesktopNotifier{log: log}
	n.send = n.probe()
	return n
}

func (n *DesktopNotifier) probe() func(title, message string) error {
	switch runtime.GOOS {
	case "darwin":
		if path, err := exec.LookPath("osascript"); err == nil {
			return func(title, message string) error {
				script := fmt.Sprintf("display notification %q with title %q", message, title)
				return exec.Command(path, "-e", script).Run()
			}
		}
	case "linux":
		if path, err := exec.LookPath("notify-send"); err == nil {
			return func(title, message string) error {
				return exec.Command(path, title, message).Run()
			}
		}
	case "windows":
		if path, err := exec.LookPath("msg"); err == nil {
			return func(title, message string) error {
				return exec.Command(path, "*", "/TIME:5", title+": "+message).Run()
			}
		}
	}
	return nil
}

// Notify shows the notice, or logs it when no desktop channel exists.
func (n *DesktopNotifier) Notify(title, message string) {
	if n.send == nil {
		n.log.Info("notice", map[string]interface{}{"title": title, "message": message})
		return
	}
	if err := n.send(title, message); err != nil {
		n.log.Warn("desktop notification failed", map[string]interface{}{
			"title": title,
			"error": err.Error(),
		})
	}
}

var _ ports.Notifier = (*DesktopNotifier)(nil)
