// internal/dsp/detector.go
package dsp

import (
	"errors"
	"sync/atomic"
	"time"
)

var (
	// ErrInvalidThreshold indicates threshold must be between 0 and 1
	ErrInvalidThreshold = errors.New("threshold must be between 0.0 and 1.0")
	// ErrInvalidHysteresis indicates hysteresis must be at least 1
	ErrInvalidHysteresis = errors.New("hysteresis must be at least 1")
	// ErrInvalidOverlap indicates overlap percentage must be 0-99
	ErrInvalidOverlap = errors.New("overlap percentage must be between 0 and 99")
	// ErrInvalidAGCDecay indicates AGC decay must be between 0 and 1
	ErrInvalidAGCDecay = errors.New("agc decay must be between 0.0 and 1.0")
	// ErrInvalidAGCAttack indicates AGC attack must be between 0 and 1
	ErrInvalidAGCAttack = errors.New("agc attack must be between 0.0 and 1.0")
	// ErrGoertzelRequired indicates Goertzel instance is required
	ErrGoertzelRequired = errors.New("goertzel instance is required")
)

// agcFloor keeps the AGC divisor away from zero on silence.
const agcFloor = 0.001

// KeyEvent is a confirmed change of the received key.
type KeyEvent struct {
	// Down is true when the tone starts and false when it stops
	Down bool
	// At is the audio time of the change, derived from the sample count
	At time.Time
}

// KeyCallback receives key events. It runs on the audio path and must not block.
type KeyCallback func(KeyEvent)

// DetectorConfig holds configuration for the tone detector.
type DetectorConfig struct {
	// Threshold for tone detection (0.0-1.0) (from config: threshold)
	Threshold float64
	// Hysteresis is consecutive blocks required to confirm state change (from config: hysteresis)
	Hysteresis int
	// OverlapPct is the block overlap percentage 0-99 (from config: overlap_pct)
	OverlapPct int
	// AGCEnabled enables automatic gain control (from config: agc_enabled)
	AGCEnabled bool
	// AGCDecay is the peak decay rate per block (from config: agc_decay)
	AGCDecay float64
	// AGCAttack is how fast to respond to louder signals (from config: agc_attack)
	AGCAttack float64
}

// Detector turns audio samples into debounced key events. Process must be
// called from a single goroutine.
type Detector struct {
	config   DetectorConfig
	goertzel *Goertzel
	hop      int

	pending []float32
	// consumed counts samples that have left the window; it timestamps events
	consumed int64
	origin   time.Time

	agcPeak float64

	keyDown  bool
	streak   int
	callback atomic.Pointer[KeyCallback]
}

// NewDetector creates a detector reading blocks through g.
func NewDetector(cfg DetectorConfig, g *Goertzel) (*Detector, error) {
	if g == nil {
		return nil, ErrGoertzelRequired
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, ErrInvalidThreshold
	}
	if cfg.Hysteresis < 1 {
		return nil, ErrInvalidHysteresis
	}
	if cfg.OverlapPct < 0 || cfg.OverlapPct >= 100 {
		return nil, ErrInvalidOverlap
	}
	if cfg.AGCDecay < 0 || cfg.AGCDecay > 1 {
		return nil, ErrInvalidAGCDecay
	}
	if cfg.AGCAttack < 0 || cfg.AGCAttack > 1 {
		return nil, ErrInvalidAGCAttack
	}

	n := g.BlockSize()
	hop := n - n*cfg.OverlapPct/100
	if hop < 1 {
		hop = 1
	}
	return &Detector{
		config:   cfg,
		goertzel: g,
		hop:      hop,
		pending:  make([]float32, 0, 2*n),
		agcPeak:  agcFloor,
	}, nil
}

// SetCallback sets the callback for key events.
func (d *Detector) SetCallback(cb KeyCallback) {
	if cb == nil {
		d.callback.Store(nil)
		return
	}
	d.callback.Store(&cb)
}

// SetOrigin fixes the wall time of the first sample. Without it the origin
// is taken from the clock on the first Process call.
func (d *Detector) SetOrigin(t time.Time) {
	d.origin = t
}

// Process consumes samples normalized to -1.0..1.0.
func (d *Detector) Process(samples []float32) {
	if d.origin.IsZero() {
		d.origin = time.Now()
	}
	d.pending = append(d.pending, samples...)

	n := d.goertzel.BlockSize()
	for len(d.pending) >= n {
		d.processBlock(d.pending[:n])
		d.pending = d.pending[:copy(d.pending, d.pending[d.hop:])]
		d.consumed += int64(d.hop)
	}
}

func (d *Detector) processBlock(block []float32) {
	mag := d.goertzel.Magnitude(block)
	if d.config.AGCEnabled {
		mag = d.applyAGC(mag)
	}
	d.debounce(mag > d.config.Threshold)
}

func (d *Detector) applyAGC(mag float64) float64 {
	if mag > d.agcPeak {
		d.agcPeak += d.config.AGCAttack * (mag - d.agcPeak)
	} else {
		d.agcPeak *= d.config.AGCDecay
	}
	if d.agcPeak < agcFloor {
		d.agcPeak = agcFloor
	}

	norm := mag / d.agcPeak
	if norm > 1 {
		norm = 1
	}
	return norm
}

// debounce confirms a change once it has held for Hysteresis blocks. The
// event is stamped at the block where the change began.
func (d *Detector) debounce(tone bool) {
	if tone == d.keyDown {
		d.streak = 0
		return
	}
	d.streak++
	if d.streak < d.config.Hysteresis {
		return
	}

	started := d.consumed - int64(d.streak-1)*int64(d.hop)
	d.keyDown = tone
	d.streak = 0
	d.emit(KeyEvent{Down: tone, At: d.sampleTime(started)})
}

func (d *Detector) sampleTime(sample int64) time.Time {
	rate := d.goertzel.SampleRate()
	return d.origin.Add(time.Duration(float64(sample) / rate * float64(time.Second)))
}

func (d *Detector) emit(ev KeyEvent) {
	if cb := d.callback.Load(); cb != nil {
		(*cb)(ev)
	}
}

// KeyDown returns the current confirmed key state
func (d *Detector) KeyDown() bool {
	return d.keyDown
}

// Reset clears buffered audio and key state, keeping the configuration.
func (d *Detector) Reset() {
	d.pending = d.pending[:0]
	d.consumed = 0
	d.origin = time.Time{}
	d.agcPeak = agcFloor
	d.keyDown = false
	d.streak = 0
}
