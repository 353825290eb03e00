package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"versecast/internal/app"
	"versecast/internal/distribution"
)

var (
	auditTitlesFile string
	auditFix        bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Compare the upload history with the videos on the channel",
	Long: `Report chapters marked uploaded that are missing on the channel and channel
videos whose chapter is still pending. Titles come from the live channel or from
a JSON array exported earlier (--titles-file).`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditTitlesFile, "titles-file", "", "JSON array of channel video titles to audit against")
	auditCmd.Flags().BoolVar(&auditFix, "fix", false, "Mark channel videos that are still pending as uploaded")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	if auditFix && auditTitlesFile != "" {
		return fmt.Errorf("--fix needs video ids and only works against the live channel")
	}

	svc, err := loadService(cmd, auditTitlesFile == "")
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	var videos []distribution.Video
	if auditTitlesFile != "" {
		videos, err = app.LoadTitles(auditTitlesFile)
	} else {
		videos, err = svc.ChannelVideos(cmd.Context())
	}
	if err != nil {
		return err
	}

	report, err := svc.Audit(cmd.Context(), videos)
	if err != nil {
		return err
	}
	printAudit(len(videos), report)

	if !auditFix || len(report.Unmarked) == 0 {
		return nil
	}

	fixed, err := svc.FixUnmarked(cmd.Context(), report)
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Marked %d chapter(s) uploaded", fixed)))
	return nil
}

func printAudit(total int, report *app.AuditReport) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Audit of %d channel video(s)", total)))

	if report.Clean() {
		fmt.Println(successStyle.Render("✓ History matches the channel"))
	}

	if len(report.NotOnChannel) > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Marked uploaded but not on the channel (%d):", len(report.NotOnChannel))))
		for _, rec := range report.NotOnChannel {
			fmt.Printf("  %s %d\n", rec.Book, rec.Chapter)
		}
	}

	if len(report.Unmarked) > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("On the channel but still pending (%d):", len(report.Unmarked))))
		for _, u := range report.Unmarked {
			fmt.Printf("  %s %d  %s\n", u.Record.Book, u.Record.Chapter, u.Video.ID)
		}
	}

	if len(report.Untracked) > 0 {
		fmt.Println(infoStyle.Render(fmt.Sprintf("On the channel with no history record (%d):", len(report.Untracked))))
		for _, v := range report.Untracked {
			fmt.Printf("  %s\n", v.Title)
		}
	}

	if len(report.Unparsed) > 0 {
		fmt.Println(infoStyle.Render(fmt.Sprintf("Titles not recognised as chapters: %d", len(report.Unparsed))))
	}
}
