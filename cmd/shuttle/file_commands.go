package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newFilesCommand(ctx *commandContext) *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List cataloged files for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID <= 0 {
				return fmt.Errorf("--project is required")
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			files, err := client.ListFiles(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No files cataloged.")
				return nil
			}

			rows := make([][]string, 0, len(files))
			for _, file := range files {
				detail := ""
				if file.LastError != "" {
					detail = file.LastError
				}
				rows = append(rows, []string{
					strconv.FormatInt(file.ID, 10),
					file.Folder,
					file.Name,
					formatSize(file.Size),
					file.Status,
					strconv.Itoa(file.Attempts),
					detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Folder", "Name", "Size", "Status", "Attempts", "Last Error"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&projectID, "project", "p", 0, "Project id")
	return cmd
}

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <project-id>",
		Short: "Reconcile a project's folders with the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			result, err := client.Reconcile(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Reconciled project %d: %d added, %d updated, %d removed, %d orphan artifacts cleaned, %d queued for conversion\n",
				id, result.Added, result.Updated, result.Removed, result.OrphansRemoved, result.Requeued)
			return nil
		},
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <file-id>",
		Short: "Requeue a failed conversion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid file id %q", args[0])
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			file, err := client.RetryFile(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "File %d (%s) is %s again\n", file.ID, file.Name, file.Status)
			return nil
		},
	}
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
