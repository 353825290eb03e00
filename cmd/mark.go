package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"versecast/internal/app"
)

var (
	markVideoID string
	markUnset   bool
)

var markCmd = &cobra.Command{
	Use:   "mark <book> <chapter>",
	Short: "Mark a chapter as uploaded (or pending) by hand",
	Example: `  versecast mark Genesis 3 --video-id dQw4w9WgXcQ
  versecast mark 1kgs 9
  versecast mark "Song of Solomon" 2 --unset`,
	Args: cobra.ExactArgs(2),
	RunE: runMark,
}

func init() {
	markCmd.Flags().StringVar(&markVideoID, "video-id", "", "YouTube video id to store with the record")
	markCmd.Flags().BoolVar(&markUnset, "unset", false, "Mark the chapter pending again and clear its video id")
	rootCmd.AddCommand(markCmd)
}

func runMark(cmd *cobra.Command, args []string) error {
	chapter, err := strconv.Atoi(args[1])
	if err != nil || chapter <= 0 {
		return fmt.Errorf("chapter must be a positive number, got %q", args[1])
	}
	if markUnset && markVideoID != "" {
		return fmt.Errorf("--unset and --video-id cannot be combined")
	}

	svc, err := loadService(cmd, false)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	rec, err := svc.Mark(cmd.Context(), args[0], chapter, app.MarkOptions{
		VideoID: markVideoID,
		Unset:   markUnset,
	})
	if err != nil {
		return err
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ %s %d: %s", rec.Book, rec.Chapter, rec.Status())))
	return nil
}
