package cmd

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"versecast/internal/app"
	"versecast/internal/distribution"
)

var (
	uploadLimit  int
	uploadDryRun bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload pending chapters to YouTube in reading order",
	Long: `Upload every pending chapter, Genesis first, storing each video id as soon as
the upload finishes. The run stops cleanly when the daily quota is used up.`,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().IntVarP(&uploadLimit, "limit", "n", 0, "Maximum number of uploads for this run (0 uses upload.limit)")
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "List what would be uploaded without calling YouTube")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd, !uploadDryRun)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	summary, err := svc.UploadPending(cmd.Context(), app.UploadOptions{
		Limit:  uploadLimit,
		DryRun: uploadDryRun,
	})
	if summary != nil {
		slog.Info("Upload run finished",
			"uploaded", summary.Uploaded,
			"planned", summary.Planned,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
			"remaining", summary.Remaining,
		)
	}
	if errors.Is(err, distribution.ErrQuotaExceeded) {
		slog.Warn("Daily upload quota reached, try again tomorrow")
		return nil
	}
	return err
}
