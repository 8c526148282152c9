package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/weft/internal/plugin"
	"github.com/Iron-Ham/weft/internal/plugins/command"
)

// newRegistry returns the registry of built-in plugins.
func newRegistry() (*plugin.Registry, error) {
	r := plugin.NewRegistry()
	if err := command.New().Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

func newPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List the built-in plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := newRegistry()
			if err != nil {
				return err
			}
			for _, name := range r.Names() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
