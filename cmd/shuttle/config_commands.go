package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shuttle/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialize configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "staging_dir  = %s\n", cfg.Paths.StagingDir)
			fmt.Fprintf(out, "library_dir  = %s\n", cfg.Paths.LibraryDir)
			fmt.Fprintf(out, "log_dir      = %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "api_bind     = %s\n", cfg.Paths.APIBind)
			fmt.Fprintf(out, "database     = %s\n", cfg.DatabasePath())
			fmt.Fprintf(out, "workers      = %d\n", cfg.Transcode.Workers)
			fmt.Fprintf(out, "max_attempts = %d\n", cfg.Transcode.MaxAttempts)
			fmt.Fprintf(out, "session_ttl  = %dh\n", cfg.Upload.SessionTTLHours)
			return nil
		},
	})

	var initPath string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(initPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				target = defaultPath
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}
	initCmd.Flags().StringVar(&initPath, "path", "", "Destination path for the sample configuration")
	cmd.AddCommand(initCmd)

	return cmd
}
