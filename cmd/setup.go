package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"versecast/internal/app"
	"versecast/internal/scanner"
	"versecast/internal/scheduler"
	"versecast/pkg/config"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

type setupAnswers struct {
	moviesDir  string
	secretsDir string
	provider   string
	bucket     string
	backend    string
	schedule   string
	env        map[string]string
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Long:  `Create the movies and secrets directories, write .env and a starter config.yaml.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("📖 Versecast Setup"))

	answers := &setupAnswers{env: make(map[string]string)}

	steps := []struct {
		name string
		fn   func(*setupAnswers) error
	}{
		{"Choosing paths", askPaths},
		{"Creating directories", createDirectories},
		{"Configuring Google Cloud", configureGCP},
		{"Writing config", writeConfigFile},
		{"Configuring environment", writeEnvFile},
	}

	for _, step := range steps {
		if err := step.fn(answers); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	if err := offerAuth(cmd); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("OAuth flow failed: %v", err)))
		fmt.Println(infoStyle.Render("You can retry later with: versecast auth youtube"))
	}

	printNextSteps(answers)
	return nil
}

func askPaths(a *setupAnswers) error {
	a.moviesDir = "./movies"
	a.secretsDir = "./secrets"
	a.provider = config.ProviderLocal
	a.backend = config.BackendJSON
	a.schedule = "17:01"

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Movies directory").
				Description("Where rendered <Book>_Chapter_<N>.mp4 files are written").
				Value(&a.moviesDir).
				Validate(required("Movies directory")),
			huh.NewInput().
				Title("Secrets directory").
				Description("Holds client_secret.json and the OAuth token").
				Value(&a.secretsDir).
				Validate(required("Secrets directory")),
			huh.NewSelect[string]().
				Title("Video storage").
				Options(
					huh.NewOption("Local movies directory", config.ProviderLocal),
					huh.NewOption("Google Cloud Storage bucket", config.ProviderGCS),
				).
				Value(&a.provider),
			huh.NewSelect[string]().
				Title("History backend").
				Options(
					huh.NewOption("JSON file (video_history.json)", config.BackendJSON),
					huh.NewOption("SQLite database", config.BackendSQLite),
				).
				Value(&a.backend),
			huh.NewInput().
				Title("Daily upload time (HH:MM)").
				Value(&a.schedule).
				Validate(func(s string) error {
					_, err := scheduler.ParseClock(s)
					return err
				}),
		),
	).Run()
}

func createDirectories(a *setupAnswers) error {
	dirs := map[string]os.FileMode{
		a.moviesDir:  0755,
		a.secretsDir: 0700,
	}
	for dir, mode := range dirs {
		if err := os.MkdirAll(dir, mode); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	fmt.Println(successStyle.Render("✓ Created directories"))
	return nil
}

func configureGCP(a *setupAnswers) error {
	var setupGCP bool
	if err := huh.NewConfirm().
		Title("Setup Google Cloud?").
		Description("Enables the YouTube, Secret Manager and Storage APIs for a project").
		Value(&setupGCP).
		Run(); err != nil {
		return err
	}

	if a.provider == config.ProviderGCS {
		if err := huh.NewInput().
			Title("GCS bucket").
			Value(&a.bucket).
			Validate(required("GCS bucket")).
			Run(); err != nil {
			return err
		}
		a.env["GCS_BUCKET"] = strings.TrimSpace(a.bucket)
	}

	if !setupGCP {
		return askClientCredentials(a)
	}

	if !commandExists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found - install from https://cloud.google.com/sdk/docs/install"))
		return askClientCredentials(a)
	}

	project := getActiveProject()
	if err := huh.NewInput().
		Title("Google Cloud project ID").
		Value(&project).
		Validate(required("Project ID")).
		Run(); err != nil {
		return err
	}
	a.env["GOOGLE_CLOUD_PROJECT"] = strings.TrimSpace(project)

	if err := enableGCPAPIs(project); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
	}

	return askClientCredentials(a)
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func enableGCPAPIs(project string) error {
	apis := []string{
		"youtube.googleapis.com",
		"secretmanager.googleapis.com",
		"storage.googleapis.com",
	}

	return runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd("gcloud", args...)
	})
}

func askClientCredentials(a *setupAnswers) error {
	secretsFile := filepath.Join(a.secretsDir, "client_secret.json")
	if _, err := os.Stat(secretsFile); err == nil {
		fmt.Println(successStyle.Render("✓ Found " + secretsFile))
		return nil
	}

	fmt.Println(infoStyle.Render(`
To create OAuth credentials:
1. Go to https://console.cloud.google.com/apis/credentials
2. Click "Create Credentials" → "OAuth client ID"
3. Choose "Desktop app" as application type
4. Download the JSON to ` + secretsFile + `, or paste the ID and secret below
   (leave empty to read them from Secret Manager)
`))

	var clientID, clientSecret string
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("YouTube Client ID").
				Value(&clientID),
			huh.NewInput().
				Title("YouTube Client Secret").
				EchoMode(huh.EchoModePassword).
				Value(&clientSecret),
		),
	).Run(); err != nil {
		return err
	}

	if v := strings.TrimSpace(clientID); v != "" {
		a.env["YOUTUBE_CLIENT_ID"] = v
	}
	if v := strings.TrimSpace(clientSecret); v != "" {
		a.env["YOUTUBE_CLIENT_SECRET"] = v
	}
	return nil
}

func writeConfigFile(a *setupAnswers) error {
	const path = "config.yaml"
	if ok, err := confirmOverwrite(path); err != nil || !ok {
		return err
	}

	starter := map[string]any{
		"paths": map[string]string{
			"movies_dir":  a.moviesDir,
			"secrets_dir": a.secretsDir,
		},
		"history":  map[string]string{"backend": a.backend},
		"storage":  map[string]string{"provider": a.provider, "bucket": a.bucket},
		"schedule": map[string]string{"time": a.schedule},
		"youtube": map[string]any{
			"privacy_status": "public",
			"tags":           []string{"Bible", "Audio Bible", "NIRV"},
		},
		"upload": map[string]any{"max_retries": 10, "base_delay": "1s", "max_delay": "17m4s"},
	}

	data, err := yaml.Marshal(starter)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Created config.yaml"))
	return nil
}

func writeEnvFile(a *setupAnswers) error {
	if len(a.env) == 0 {
		return nil
	}
	if ok, err := confirmOverwrite(".env"); err != nil || !ok {
		return err
	}

	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"GOOGLE_CLOUD_PROJECT",
		"YOUTUBE_CLIENT_ID",
		"YOUTUBE_CLIENT_SECRET",
		"GCS_BUCKET",
	}

	for _, key := range order {
		if val, ok := a.env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	return nil
}

func confirmOverwrite(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		return true, nil
	}

	var overwrite bool
	if err := huh.NewConfirm().
		Title("Found existing " + path).
		Description("Overwrite?").
		Value(&overwrite).
		Run(); err != nil {
		return false, err
	}
	if !overwrite {
		fmt.Println(infoStyle.Render("Kept existing " + path))
	}
	return overwrite, nil
}

func offerAuth(cmd *cobra.Command) error {
	var authenticate bool
	if err := huh.NewConfirm().
		Title("Authenticate with YouTube now?").
		Description("Opens browser to complete OAuth flow").
		Value(&authenticate).
		Run(); err != nil || !authenticate {
		return err
	}

	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	auth, err := app.NewYouTubeAuth(cfg)
	if err != nil {
		return err
	}
	return runYouTubeAuth(cmd.Context(), auth)
}

func printNextSteps(a *setupAnswers) {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Printf("  1. Put chapter videos in %s (e.g. %s)\n", a.moviesDir, scanner.FileName("Genesis", 1))
	fmt.Println("  2. Run: versecast sync")
	fmt.Println("  3. Run: versecast upload --dry-run")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
