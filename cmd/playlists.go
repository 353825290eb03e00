package cmd

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"versecast/internal/distribution"
)

var playlistsCmd = &cobra.Command{
	Use:   "playlists",
	Short: "Add uploaded chapters to their book playlists",
	Long: `Backfill missing video ids from the channel, create a playlist per book when
needed and add every uploaded chapter that is not yet in it.`,
	RunE: runPlaylists,
}

func init() {
	rootCmd.AddCommand(playlistsCmd)
}

func runPlaylists(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd, true)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	summary, err := svc.ReconcilePlaylists(cmd.Context())
	if summary != nil {
		slog.Info("Playlist run finished",
			"backfilled", summary.Backfilled,
			"created", summary.Created,
			"added", summary.Added,
			"failed", summary.Failed,
			"skipped_books", summary.SkippedBooks,
		)
	}
	if errors.Is(err, distribution.ErrQuotaExceeded) {
		slog.Warn("API quota reached, remaining playlist work will run next time")
		return nil
	}
	return err
}
