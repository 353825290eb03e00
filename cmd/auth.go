package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"versecast/internal/app"
	"versecast/internal/distribution/youtube"
	"versecast/pkg/config"
)

var (
	authInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	authSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	authErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const authTimeout = 5 * time.Minute

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with YouTube",
}

var authYouTubeCmd = &cobra.Command{
	Use:   "youtube",
	Short: "Authorize YouTube uploads (OAuth)",
	Long: `Open the Google consent page and store the resulting token at
youtube.token_path. Uses the client secrets file from the secrets directory or
YOUTUBE_CLIENT_ID/YOUTUBE_CLIENT_SECRET.`,
	RunE: runAuthYouTube,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credentials and storage are configured",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authYouTubeCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println(authInfoStyle.Render("\nAuthentication status:\n"))

	auth, err := app.NewYouTubeAuth(cfg)
	switch {
	case err != nil:
		fmt.Println(authErrorStyle.Render("✗ YouTube: no client secrets file at " + cfg.YouTube.ClientSecretsFile))
		fmt.Println(authInfoStyle.Render("  Download it from the Google Cloud console or set YOUTUBE_CLIENT_ID/YOUTUBE_CLIENT_SECRET"))
	case auth.IsAuthenticated():
		fmt.Println(authSuccessStyle.Render("✓ YouTube: authenticated (" + auth.TokenPath() + ")"))
	default:
		fmt.Println(authErrorStyle.Render("✗ YouTube: credentials found, but not authenticated"))
		fmt.Println(authInfoStyle.Render("  Run: versecast auth youtube"))
	}

	switch cfg.Storage.Provider {
	case config.ProviderGCS:
		fmt.Println(authSuccessStyle.Render(fmt.Sprintf("✓ Videos: gs://%s/%s", cfg.Storage.Bucket, cfg.Storage.Prefix)))
	default:
		if _, err := os.Stat(cfg.Paths.MoviesDir); err == nil {
			fmt.Println(authSuccessStyle.Render("✓ Videos: " + cfg.Paths.MoviesDir))
		} else {
			fmt.Println(authErrorStyle.Render("✗ Videos: movies directory " + cfg.Paths.MoviesDir + " not found"))
		}
	}

	if cfg.GCPProject != "" {
		fmt.Println(authSuccessStyle.Render("✓ Google Cloud project: " + cfg.GCPProject))
	} else {
		fmt.Println(authInfoStyle.Render("○ Google Cloud project: not configured (optional)"))
	}

	fmt.Println()
	return nil
}

func runAuthYouTube(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	auth, err := app.NewYouTubeAuth(cfg)
	if err != nil {
		return err
	}
	return runYouTubeAuth(cmd.Context(), auth)
}

func runYouTubeAuth(ctx context.Context, auth *youtube.Auth) error {
	redirect, err := url.Parse(youtube.RedirectURL)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", ":"+redirect.Port())
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}

	state := uuid.NewString()
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != redirect.Path {
				http.NotFound(w, r)
				return
			}
			if r.URL.Query().Get("state") != state {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				return
			}

			code := r.URL.Query().Get("code")
			if code == "" {
				errChan <- errors.New("no code in callback")
				_, _ = fmt.Fprint(w, "<html><body><h1>Error</h1><p>No authorization code received.</p></body></html>")
				return
			}

			codeChan <- code
			_, _ = fmt.Fprint(w, "<html><body><h1>Success!</h1><p>You can close this window and return to the terminal.</p></body></html>")
		}),
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := auth.GetAuthURL(state)
	fmt.Println(authInfoStyle.Render("\nOpening browser for YouTube authentication..."))
	fmt.Println(authInfoStyle.Render("If the browser doesn't open, visit:\n" + authURL))
	_ = browser.OpenURL(authURL)
	fmt.Println(authInfoStyle.Render("\nWaiting for authentication..."))

	select {
	case code := <-codeChan:
		if err := auth.Exchange(ctx, code); err != nil {
			return err
		}
		fmt.Println(authSuccessStyle.Render("✓ YouTube authentication complete"))
		fmt.Println(authSuccessStyle.Render("  Token saved to: " + auth.TokenPath()))
		return nil

	case err := <-errChan:
		return err

	case <-ctx.Done():
		return ctx.Err()

	case <-time.After(authTimeout):
		return errors.New("authentication timed out")
	}
}
