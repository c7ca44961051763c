// Package main provides the CLI entrypoint for tuivia.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tuivia/internal/audio"
	"github.com/verte-zerg/tuivia/internal/config"
	"github.com/verte-zerg/tuivia/internal/leaderboard"
	"github.com/verte-zerg/tuivia/internal/model"
	"github.com/verte-zerg/tuivia/internal/provider"
	"github.com/verte-zerg/tuivia/internal/scoresui"
	"github.com/verte-zerg/tuivia/internal/timer"
	"github.com/verte-zerg/tuivia/internal/tui"
)

const (
	defaultQuestions    = 10
	defaultRoundSeconds = 30
	defaultSound        = true
)

var (
	playName         string
	playCategory     int
	playQuestions    int
	playRoundSeconds int
	playSound        bool
	playAPIURL       string

	scoresClear bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuivia",
		Short:         "TUI trivia quiz",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playName, "name", "", "player name (default: asked on the start screen)")
	rootCmd.Flags().IntVar(&playCategory, "category", 0, "category id (0 = any, see 'tuivia categories')")
	rootCmd.Flags().IntVar(&playQuestions, "questions", defaultQuestions, "questions per game")
	rootCmd.Flags().IntVar(&playRoundSeconds, "round-seconds", defaultRoundSeconds, "seconds per question")
	rootCmd.Flags().BoolVar(&playSound, "sound", defaultSound, "terminal bell cues")
	rootCmd.Flags().StringVar(&playAPIURL, "api-url", provider.DefaultBaseURL, "trivia API base URL")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCategoriesCmd())
	rootCmd.AddCommand(newScoresCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadPlayConfig(cmd)
	if err != nil {
		return err
	}

	st, err := leaderboard.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	client := provider.New(cfg.APIURL)
	bell := audio.NewBell(os.Stderr, cfg.Sound)
	ui := tui.NewModel(cfg, client, st, timer.New(), bell)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func loadPlayConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "name", &playName, fileCfg.Play.Name)
	applyIntConfig(cmd, "category", &playCategory, fileCfg.Play.Category)
	applyIntConfig(cmd, "questions", &playQuestions, fileCfg.Play.Questions)
	applyIntConfig(cmd, "round-seconds", &playRoundSeconds, fileCfg.Play.RoundSeconds)
	applyBoolConfig(cmd, "sound", &playSound, fileCfg.Play.Sound)
	applyStringConfig(cmd, "api-url", &playAPIURL, fileCfg.Play.APIURL)

	cfg := model.Config{
		PlayerName:   playName,
		CategoryID:   playCategory,
		Questions:    playQuestions,
		RoundSeconds: playRoundSeconds,
		Sound:        playSound,
		APIURL:       playAPIURL,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List trivia categories",
		Args:  cobra.NoArgs,
		RunE:  runCategoriesCmd,
	}
	cmd.Flags().StringVar(&playAPIURL, "api-url", provider.DefaultBaseURL, "trivia API base URL")
	return cmd
}

func runCategoriesCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "api-url", &playAPIURL, fileCfg.Play.APIURL)

	client := provider.New(playAPIURL)
	categories, err := client.Categories(context.Background())
	if err != nil {
		return fmt.Errorf("failed to fetch categories: %w", err)
	}
	if len(categories) == 0 {
		return fmt.Errorf("no categories available")
	}
	for _, category := range categories {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s\n", category.ID, category.Name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newScoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Show the leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runScoresCmd,
	}
	cmd.Flags().BoolVar(&scoresClear, "clear", false, "clear the leaderboard and exit")
	return cmd
}

func runScoresCmd(cmd *cobra.Command, _ []string) error {
	st, err := leaderboard.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if scoresClear {
		if err := st.Clear(context.Background()); err != nil {
			return fmt.Errorf("failed to clear scores: %w", err)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "Leaderboard cleared.")
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return printScores(cmd, st)
	}

	ui := scoresui.NewModel(st)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run scores TUI: %w", err)
	}
	return nil
}

func printScores(cmd *cobra.Command, st *leaderboard.Store) error {
	entries, err := st.Load(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No high scores yet!")
		return err
	}
	for i, entry := range entries {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%2d. %-24s %d/%d  %s  %s\n",
			i+1,
			entry.Name,
			entry.Score,
			entry.Total,
			entry.CategoryLabel,
			entry.RecordedAt.Format("Jan 2, 2006"),
		); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuivia configuration
# Uncomment a value to enable it. CLI flags override config values.

[play]
# name = ""                # Player name (default: asked on the start screen)
# category = 0             # Category id (0 = any, see 'tuivia categories')
# questions = %d           # Questions per game
# round-seconds = %d       # Seconds per question
# sound = %t               # Terminal bell cues
# api-url = %q
`,
		defaultQuestions,
		defaultRoundSeconds,
		defaultSound,
		provider.DefaultBaseURL,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Questions <= 0 || cfg.Questions > 50 {
		return fmt.Errorf("--questions must be between 1 and 50")
	}
	if cfg.RoundSeconds <= 0 {
		return fmt.Errorf("--round-seconds must be > 0")
	}
	if cfg.APIURL == "" {
		return fmt.Errorf("--api-url must not be empty")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
