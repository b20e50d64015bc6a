package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scribeapp/scribe/internal/app"
)

func newConfigCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), container.ConfigLoader.Path())
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), container.ConfigLoader.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the config file contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(container.ConfigLoader.Path())
			if err != nil {
				return err
			}
			cmd.OutOrStdout().Write(data)
			return nil
		},
	})

	return cmd
}
