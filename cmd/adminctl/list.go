package main

import (
	"github.com/spf13/cobra"
)

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <resource>",
		Short: "Fetch and print every record of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openModule(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer m.Stop()

			section, err := m.Sections.Get(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := section.Refresh(commandContext(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, section.Records())
		},
	}
}
