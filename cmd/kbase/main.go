// Command kbase is the terminal landing page of the knowledgebase: drop files to
// upload them, ask questions and read the answers with their context.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kbase/internal/client"
	"kbase/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "kbase",
	Short: "Terminal landing page for the kbase knowledgebase",
	Long: `kbase opens the knowledgebase landing page in the terminal:
  - drop or paste file paths to add them to the knowledgebase
  - ask a question and read the answer with its context
  - store your OpenAI API key once for hosted models`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.String("server", "http://localhost:8000", "kbase server URL")
	flags.String("store", "", "credential store file (default is $XDG_CONFIG_HOME/kbase/settings.yaml)")
	flags.String("model", ui.DefaultModel, "model identifier sent with every question")
	flags.String("log", "", "write JSON logs to this file (default is no logging)")
	flags.String("log-level", "INFO", "log level: DEBUG, INFO, WARN or ERROR")

	for _, name := range []string{"server", "store", "model", "log", "log-level"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func initConfig() {
	viper.SetEnvPrefix("KBASE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errors.New("kbase needs an interactive terminal")
	}

	closeLog, err := setupLogger(viper.GetString("log"), viper.GetString("log-level"))
	if err != nil {
		return err
	}
	defer closeLog()

	storePath := viper.GetString("store")
	if storePath == "" {
		if storePath, err = ui.DefaultStorePath(); err != nil {
			return err
		}
	}
	store := ui.NewFileStore(storePath)

	api := client.New(viper.GetString("server"), func() string {
		key, err := store.Get(ui.CredentialKey)
		if err != nil {
			slog.Warn("Could not read stored credential", "error", err)
		}
		return key
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	page := ui.NewPage(api, store, viper.GetString("model"))
	page.Mount()
	slog.Info("Landing page started", "server", viper.GetString("server"), "store", store.Path())

	if _, err := tea.NewProgram(ui.NewModel(ctx, page), tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}

// setupLogger sends slog output to path as JSON. The terminal belongs to the UI,
// so without a path logs are discarded.
func setupLogger(path, level string) (func(), error) {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	if path == "" {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: lvl})))
	return func() { _ = f.Close() }, nil
}
