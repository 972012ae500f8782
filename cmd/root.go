// cmd/root.go
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ColonelBlimp/cwkeyer/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "cwkeyer",
	Short: "Morse key for the terminal",
	Long: `Key Morse code into terminal text fields by holding the mouse button.
Each field decodes its own presses at the configured speed; with audio input
enabled a "radio" field decodes a received CW tone.`,
	SilenceUsage: true,
	RunE:         runKeyer,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("wpm", "w", 10, "keying speed in words per minute")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file")

	rootCmd.AddCommand(runCmd, replayCmd, scriptCmd, tableCmd)
}

// bindFlags ties the global flags to their config keys. It runs on every
// initialisation so the binding survives a viper reset.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("wpm", flags.Lookup("wpm"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("log_file", flags.Lookup("log-file"))
}

func initConfig() {
	bindFlags()
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the text logger. Logs go to the configured log file when
// there is one and to fallback otherwise. The returned close must be called.
func newLogger(s *config.Settings, fallback io.Writer) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if s.Debug {
		level = slog.LevelDebug
	}

	w, closer := fallback, func() error { return nil }
	if s.LogFile != "" {
		f, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f.Close
	}

	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return log, closer, nil
}
