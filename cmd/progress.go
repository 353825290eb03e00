package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"versecast/internal/app"
)

var progressAll bool

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show upload progress per book",
	RunE:  runProgress,
}

func init() {
	progressCmd.Flags().BoolVarP(&progressAll, "all", "a", false, "Include books with no videos yet")
	rootCmd.AddCommand(progressCmd)
}

func runProgress(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd, false)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	report, err := svc.Progress(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Upload progress"))
	fmt.Println(progressTable(report, progressAll))
	return nil
}

func progressTable(report *app.ProgressReport, all bool) *table.Table {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	var rows [][]string
	var complete []bool
	add := func(p app.BookProgress) {
		rows = append(rows, []string{
			p.Book,
			strconv.Itoa(p.Chapters),
			strconv.Itoa(p.Tracked),
			strconv.Itoa(p.Uploaded),
			strconv.Itoa(p.MissingID),
		})
		complete = append(complete, p.Complete())
	}

	for _, p := range report.Books {
		if all || p.Tracked > 0 {
			add(p)
		}
	}
	for _, p := range report.Unknown {
		add(p)
	}
	add(report.Total)

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("Book", "Chapters", "Videos", "Uploaded", "No ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == len(rows)-1:
				return cellStyle.Bold(true)
			case row >= 0 && row < len(complete) && complete[row]:
				return cellStyle.Foreground(lipgloss.Color("42"))
			default:
				return cellStyle
			}
		})
}
