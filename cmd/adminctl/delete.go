package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete a record after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, id := args[0], args[1]

			m, err := openModule(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer m.Stop()

			section, err := m.Sections.Get(resource)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := section.RequestDelete(id); err != nil {
				return writeErr(cmd, err)
			}

			if !yes {
				fmt.Fprintf(cmd.ErrOrStderr(), "Delete %s %s? [y/N] ", resource, id)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					section.CancelDelete()
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}

			if err := section.ConfirmDelete(commandContext(cmd), id); err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted successfully\n", section.Entity())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
