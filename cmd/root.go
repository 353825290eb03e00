package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"versecast/internal/app"
	"versecast/pkg/config"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "versecast",
	Short: "Publish Bible chapter videos to YouTube",
	Long: `Versecast keeps a history of rendered chapter videos, uploads the pending ones
in reading order and files every upload into its book's playlist.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogger()
	}
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler).With("run_id", uuid.NewString()))
}

func loadService(cmd *cobra.Command, needPlatform bool) (*app.Service, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.BuildService(cmd.Context(), cfg, needPlatform)
}
