package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List active upload sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			sessions, err := client.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No active upload sessions.")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, session := range sessions {
				percent := "0%"
				if session.Length > 0 {
					percent = fmt.Sprintf("%.0f%%", float64(session.Offset)/float64(session.Length)*100)
				}
				rows = append(rows, []string{
					session.Token,
					strconv.FormatInt(session.ProjectID, 10),
					session.Folder,
					session.Name,
					fmt.Sprintf("%s / %s", formatSize(session.Offset), formatSize(session.Length)),
					percent,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Token", "Project", "Folder", "Name", "Progress", "%"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}
