package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and catalog counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon:   running (pid %d)\n", status.PID)
			fmt.Fprintf(out, "Database: %s\n", status.DatabasePath)
			fmt.Fprintf(out, "Lock:     %s\n", status.LockFilePath)
			fmt.Fprintf(out, "Projects: %d  Active uploads: %d\n", status.Projects, status.ActiveSessions)

			statuses := make([]string, 0, len(status.FilesByStatus))
			for name := range status.FilesByStatus {
				statuses = append(statuses, name)
			}
			sort.Strings(statuses)

			if stdoutIsTerminal() {
				rows := make([][]string, 0, len(statuses))
				for _, name := range statuses {
					rows = append(rows, []string{name, fmt.Sprint(status.FilesByStatus[name])})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Status", "Files"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			}
			for _, name := range statuses {
				fmt.Fprintf(out, "%s\t%d\n", name, status.FilesByStatus[name])
			}
			return nil
		},
	}
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
