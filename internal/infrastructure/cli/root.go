// Package cli wires the cobra command tree around the application container.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/scribeapp/scribe/internal/app"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}

	runCmd := newRunCommand(container)

	root := &cobra.Command{
		Use:   "scribe",
		Short: "Scribe - hotkey-driven AI writing assistant",
		Long:  "Scribe transforms selected text anywhere on the desktop: press the hotkey, pick an operation, get the result pasted back or opened as a chat.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCmd.ExecuteContext(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(runCmd)
	root.AddCommand(newChatsCommand(container))
	root.AddCommand(newConfigCommand(container))
	root.AddCommand(newDoctorCommand(container))
	root.AddCommand(newVersionCommand())
	return root, nil
}
