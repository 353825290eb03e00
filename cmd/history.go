package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"versecast/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Move the upload history between JSON and SQLite",
}

var historyImportCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Add records from another history file (.json or .db)",
	Long: `Read records from a JSON history or SQLite database and add the chapters the
configured history does not track yet. Existing records are never changed.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryImport,
}

var historyExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write the history into a new file (.json or .db)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryExport,
}

func init() {
	historyCmd.AddCommand(historyImportCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryImport(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd, false)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	src, err := history.Open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	summary, err := svc.ImportHistory(cmd.Context(), src)
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Imported %d record(s), %d already tracked", summary.Added, summary.Skipped)))
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd, false)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	dst, err := history.Open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()

	n, err := svc.ExportHistory(cmd.Context(), dst)
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Exported %d record(s) to %s", n, args[0])))
	return nil
}
