package main

import (
	"admin-console/internal/admin/usecase"

	"github.com/spf13/cobra"
)

func newAddCmd(app *App) *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "add <resource>",
		Short: "Create a record from --set field=value pairs",
		Args:  cobra.ExactArgs(1),
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
			ctx := commandContext(cmd)
			if _, err := section.PrimaryAction(ctx); err != nil {
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

// submitWith applies pairs to the open form and submits it.
func submitWith(cmd *cobra.Command, section usecase.SectionHandle, pairs [][2]string) (interface{}, error) {
	for _, p := range pairs {
		if _, err := section.ChangeField(p[0], p[1]); err != nil {
			return nil, writeErr(cmd, err)
		}
	}
	record, err := section.Submit(commandContext(cmd))
	if err != nil {
		return nil, writeErr(cmd, err)
	}
	return record, nil
}
