package main

import (
	"github.com/spf13/cobra"
)

func newEditCmd(app *App) *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "edit <resource> <id>",
		Short: "Load a record, apply --set field=value pairs and save it",
		Long:  "Fields not named with --set keep their current values.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parseSets(sets)
			if err != nil {
				return writeErr(cmd, err)
			}
			m, err := openModule(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer m.Stop()

			section, err := m.Sections.Get(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := section.Edit(commandContext(cmd), args[1]); err != nil {
				return writeErr(cmd, err)
			}
			record, err := submitWith(cmd, section, pairs)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, record)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value (repeatable)")
	return cmd
}
