package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Record new chapter videos in the upload history",
	Long: `Scan the movies directory (or bucket) for files named <Book>_Chapter_<N>.mp4
and add a pending record for every chapter the history does not know yet.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd, false)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	result, err := svc.Sync(cmd.Context())
	if err != nil {
		return err
	}

	for _, rec := range result.Added {
		slog.Info("Added record", "book", rec.Book, "chapter", rec.Chapter, "size_mb", rec.SizeMB)
	}
	slog.Info("Sync complete", "added", len(result.Added), "skipped", result.Skipped, "invalid", len(result.Invalid))
	return nil
}
