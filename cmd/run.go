// cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwkeyer/internal/audio"
	"github.com/ColonelBlimp/cwkeyer/internal/config"
	"github.com/ColonelBlimp/cwkeyer/internal/dsp"
	"github.com/ColonelBlimp/cwkeyer/internal/recovery"
	"github.com/ColonelBlimp/cwkeyer/internal/replay"
	"github.com/ColonelBlimp/cwkeyer/internal/sched"
	"github.com/ColonelBlimp/cwkeyer/internal/sidetone"
	"github.com/ColonelBlimp/cwkeyer/internal/term"
)

// loopDepth bounds the queue between input sources and the event loop.
const loopDepth = 256

var newScreen = tcell.NewScreen

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Key the terminal fields with the mouse (default)",
	Args:  cobra.NoArgs,
	RunE:  runKeyer,
}

func runKeyer(cmd *cobra.Command, _ []string) error {
	settings, err := config.Get()
	if err != nil {
		return err
	}

	// The terminal owns stdout, so logs are dropped unless log_file is set.
	log, closeLog, err := newLogger(settings, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()
	recovery.SetLogger(log)
	defer recovery.SetLogger(nil)

	screen, err := newScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer recovery.OnPanic(screen.Fini)()
	defer screen.Fini()

	opts := term.Options{
		Fields: fieldNames(settings.Fields),
		Width:  settings.FieldWidth,
		WPM:    settings.WPM,
		Radio:  settings.AudioInput,
		Logger: log,
	}

	if settings.RecordFile != "" {
		f, err := os.OpenFile(settings.RecordFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open record file: %w", err)
		}
		defer f.Close()
		opts.Recorder = replay.NewRecorder(f)
	}

	if settings.Sidetone {
		if tone := openSidetone(settings, log); tone != nil {
			defer tone.Close()
			opts.Monitor = tone
		}
	}

	loop := sched.NewLoop(loopDepth)
	ui, err := term.New(screen, loop, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.AudioInput {
		closeRadio, err := startRadio(ctx, settings, loop, ui, log)
		if err != nil {
			ui.Close()
			return err
		}
		defer closeRadio()
	}

	log.Info("keyer running", "fields", settings.Fields, "wpm", settings.WPM)
	err = ui.Run(ctx, loop)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func fieldNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("field %d", i+1)
	}
	return names
}

// openSidetone returns nil when no audio output is available; keying works
// without it.
func openSidetone(s *config.Settings, log *slog.Logger) *sidetone.Tone {
	tone, err := sidetone.New(sidetone.Config{
		Frequency:  s.SidetoneFrequency,
		Volume:     s.SidetoneVolume,
		SampleRate: beep.SampleRate(int(s.SampleRate)),
	})
	if err == nil {
		err = tone.Open()
	}
	if err != nil {
		log.Warn("sidetone unavailable", "error", err)
		return nil
	}
	return tone
}

// startRadio feeds the capture device through the tone detector into the
// radio field. Detector events are posted onto the loop.
func startRadio(ctx context.Context, s *config.Settings, loop *sched.Loop, ui *term.UI, log *slog.Logger) (func(), error) {
	g, err := dsp.NewGoertzel(dsp.GoertzelConfig{
		TargetFrequency: s.ToneFrequency,
		SampleRate:      s.SampleRate,
		BlockSize:       s.BlockSize,
	})
	if err != nil {
		return nil, fmt.Errorf("tone filter: %w", err)
	}
	det, err := dsp.NewDetector(dsp.DetectorConfig{
		Threshold:  s.Threshold,
		Hysteresis: s.Hysteresis,
		OverlapPct: s.OverlapPct,
		AGCEnabled: s.AGCEnabled,
		AGCDecay:   s.AGCDecay,
		AGCAttack:  s.AGCAttack,
	}, g)
	if err != nil {
		return nil, fmt.Errorf("tone detector: %w", err)
	}
	det.SetCallback(func(ev dsp.KeyEvent) {
		if err := loop.Post(func() { ui.Feed(ev) }); err != nil {
			log.Debug("radio event dropped", "error", err)
		}
	})

	capture := audio.New(audio.Config{
		DeviceIndex: s.DeviceIndex,
		SampleRate:  uint32(s.SampleRate),
		BufferSize:  uint32(s.BufferSize),
	})
	capture.SetCallback(det.Process)
	if err := capture.Init(); err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	if err := capture.Start(ctx); err != nil {
		_ = capture.Close()
		return nil, fmt.Errorf("audio: %w", err)
	}
	log.Info("radio input started", "tone_hz", s.ToneFrequency, "device", s.DeviceIndex)

	return func() { _ = capture.Close() }, nil
}
