// cmd/replay.go
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwkeyer/internal/config"
	"github.com/ColonelBlimp/cwkeyer/internal/cw"
	"github.com/ColonelBlimp/cwkeyer/internal/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Decode a recorded press log; - reads stdin",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

var scriptCmd = &cobra.Command{
	Use:   "script <text>",
	Short: "Write the press log an ideal fist would produce for text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScript,
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the Morse table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		for _, e := range cw.Entries() {
			if _, err := fmt.Fprintf(out, "%c  %s\n", e.Char, e.Pattern); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	scriptCmd.Flags().StringP("field", "f", "field 1", "field name written to each event")
}

func runReplay(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(settings, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open press log: %w", err)
		}
		defer f.Close()
		in = f
	}

	events, err := replay.Parse(in)
	if err != nil {
		return err
	}
	transcripts, err := replay.NewPlayer(settings.WPM, log).Play(events)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, tr := range transcripts {
		if _, err := fmt.Fprintf(out, "%s: %s\n", tr.Field, strings.TrimRight(tr.Text(), " ")); err != nil {
			return err
		}
	}
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return err
	}
	timing, err := cw.NewTiming(settings.WPM)
	if err != nil {
		return err
	}
	field, _ := cmd.Flags().GetString("field")

	events := replay.Script(field, strings.Join(args, " "), timing)
	return replay.WriteEvents(cmd.OutOrStdout(), events)
}
