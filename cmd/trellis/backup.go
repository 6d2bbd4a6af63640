package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trellis/internal/backup"
	"github.com/alfredjeanlab/trellis/internal/config"
	"github.com/alfredjeanlab/trellis/internal/store/postgres"
)

var backupCmd = &cobra.Command{
	Use:     "backup",
	Short:   "Export and restore the server's settings database",
	GroupID: "system",
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Write one backup to every configured destination",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dests := backupDestinations(cmd.Context(), cfg, logger)
		if len(dests) == 0 {
			return fmt.Errorf("no backup destination configured (set TRELLIS_BACKUP_S3_BUCKET or TRELLIS_BACKUP_GIT_REPO)")
		}
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
		return backup.NewScheduler(store, dests, cfg.BackupInterval, logger).RunOnce(cmd.Context())
	},
}

var backupDumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "Write a JSONL backup to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.OpenFile(args[0], os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		n, err := backup.ExportJSONL(cmd.Context(), store, out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %d documents\n", n)
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Load documents from a JSONL backup, replacing stored ones",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := backup.ImportJSONL(cmd.Context(), store, f)
		if err != nil {
			return fmt.Errorf("restored %d documents before failing: %w", n, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "restored %d documents\n", n)
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupRunCmd)
	backupCmd.AddCommand(backupDumpCmd)
	backupCmd.AddCommand(backupRestoreCmd)
}
