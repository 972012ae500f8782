// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	AppName       = "cwkeyer"
	ConfigType    = "yaml"
	DefaultConfig = `# CW Keyer Configuration

# Keying
wpm: 10                 # Keying speed in words per minute (5-60)

# Terminal fields
fields: 2               # Number of input fields (1-8)
field_width: 40         # Width of each field in cells (10-200)

# Sidetone
sidetone: false         # Sound a tone while the key is held
sidetone_frequency: 600 # Sidetone pitch in Hz
sidetone_volume: -1.0   # Sidetone volume, log2 scale (-10 to 0)

# Tone keying from an audio input
audio_input: false      # Add a "radio" field keyed by a received CW tone
device_index: -1        # -1 for default device
sample_rate: 48000      # Audio sample rate in Hz
buffer_size: 512        # Frames per audio callback
tone_frequency: 600     # CW tone frequency in Hz
block_size: 256         # Goertzel block size (samples per detection window)
overlap_pct: 50         # Block overlap percentage (0-99)
threshold: 0.4          # Detection threshold (0.0-1.0)
hysteresis: 3           # Consecutive blocks required to confirm state change
agc_enabled: true       # Enable automatic gain control
agc_decay: 0.9995       # AGC peak decay rate per block
agc_attack: 0.1         # AGC attack rate (0.0-1.0)

# Output
record_file: ""         # Append every press to this JSONL file ("" disables)
log_file: ""            # Write logs to this file ("" disables)
debug: false            # Enable debug logging
`
)

// Settings holds all application configuration
type Settings struct {
	// Keying
	WPM int `mapstructure:"wpm"`

	// Terminal fields
	Fields     int `mapstructure:"fields"`
	FieldWidth int `mapstructure:"field_width"`

	// Sidetone
	Sidetone          bool    `mapstructure:"sidetone"`
	SidetoneFrequency float64 `mapstructure:"sidetone_frequency"`
	SidetoneVolume    float64 `mapstructure:"sidetone_volume"`

	// Tone keying
	AudioInput    bool    `mapstructure:"audio_input"`
	DeviceIndex   int     `mapstructure:"device_index"`
	SampleRate    float64 `mapstructure:"sample_rate"`
	BufferSize    int     `mapstructure:"buffer_size"`
	ToneFrequency float64 `mapstructure:"tone_frequency"`
	BlockSize     int     `mapstructure:"block_size"`
	OverlapPct    int     `mapstructure:"overlap_pct"`
	Threshold     float64 `mapstructure:"threshold"`
	Hysteresis    int     `mapstructure:"hysteresis"`
	AGCEnabled    bool    `mapstructure:"agc_enabled"`
	AGCDecay      float64 `mapstructure:"agc_decay"`
	AGCAttack     float64 `mapstructure:"agc_attack"`

	// Output
	RecordFile string `mapstructure:"record_file"`
	LogFile    string `mapstructure:"log_file"`
	Debug      bool   `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/cwkeyer/
func Init() error {
	viper.SetDefault("wpm", 10)
	viper.SetDefault("fields", 2)
	viper.SetDefault("field_width", 40)
	viper.SetDefault("sidetone", false)
	viper.SetDefault("sidetone_frequency", 600)
	viper.SetDefault("sidetone_volume", -1.0)
	viper.SetDefault("audio_input", false)
	viper.SetDefault("device_index", -1)
	viper.SetDefault("sample_rate", 48000)
	viper.SetDefault("buffer_size", 512)
	viper.SetDefault("tone_frequency", 600)
	viper.SetDefault("block_size", 256)
	viper.SetDefault("overlap_pct", 50)
	viper.SetDefault("threshold", 0.4)
	viper.SetDefault("hysteresis", 3)
	viper.SetDefault("agc_enabled", true)
	viper.SetDefault("agc_decay", 0.9995)
	viper.SetDefault("agc_attack", 0.1)
	viper.SetDefault("record_file", "")
	viper.SetDefault("log_file", "")
	viper.SetDefault("debug", false)

	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config found - create default in ~/.config/cwkeyer/
			xdgConfigPath := filepath.Join(configDir, AppName)
			if err = ensureConfigExists(xdgConfigPath); err != nil {
				return err
			}
			if err = viper.ReadInConfig(); err != nil {
				return fmt.Errorf("read config: %w", err)
			}
		} else {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Keying
	if s.WPM < 5 || s.WPM > 60 {
		errs = append(errs, fmt.Errorf("wpm must be between 5 and 60, got %d", s.WPM))
	}

	// Terminal fields
	if s.Fields < 1 || s.Fields > 8 {
		errs = append(errs, fmt.Errorf("fields must be between 1 and 8, got %d", s.Fields))
	}
	if s.FieldWidth < 10 || s.FieldWidth > 200 {
		errs = append(errs, fmt.Errorf("field_width must be between 10 and 200, got %d", s.FieldWidth))
	}

	// Sidetone
	if s.SidetoneFrequency < 100 || s.SidetoneFrequency > 3000 {
		errs = append(errs, fmt.Errorf("sidetone_frequency must be between 100 and 3000 Hz, got %v", s.SidetoneFrequency))
	}
	if s.SidetoneVolume < -10 || s.SidetoneVolume > 0 {
		errs = append(errs, fmt.Errorf("sidetone_volume must be between -10 and 0, got %v", s.SidetoneVolume))
	}

	// Tone keying
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %v", s.SampleRate))
	}
	if s.BufferSize < 64 || s.BufferSize > 8192 {
		errs = append(errs, fmt.Errorf("buffer_size must be between 64 and 8192, got %d", s.BufferSize))
	}
	if s.BufferSize&(s.BufferSize-1) != 0 {
		errs = append(errs, fmt.Errorf("buffer_size should be a power of 2, got %d", s.BufferSize))
	}
	if s.ToneFrequency < 100 || s.ToneFrequency > 3000 {
		errs = append(errs, fmt.Errorf("tone_frequency must be between 100 and 3000 Hz, got %v", s.ToneFrequency))
	}
	if s.BlockSize < 32 || s.BlockSize > 4096 {
		errs = append(errs, fmt.Errorf("block_size must be between 32 and 4096, got %d", s.BlockSize))
	}
	if s.BlockSize&(s.BlockSize-1) != 0 {
		errs = append(errs, fmt.Errorf("block_size should be a power of 2, got %d", s.BlockSize))
	}
	if s.OverlapPct < 0 || s.OverlapPct > 99 {
		errs = append(errs, fmt.Errorf("overlap_pct must be between 0 and 99, got %d", s.OverlapPct))
	}
	if s.Threshold < 0.0 || s.Threshold > 1.0 {
		errs = append(errs, fmt.Errorf("threshold must be between 0.0 and 1.0, got %v", s.Threshold))
	}
	if s.Hysteresis < 1 || s.Hysteresis > 50 {
		errs = append(errs, fmt.Errorf("hysteresis must be between 1 and 50, got %d", s.Hysteresis))
	}
	if s.AGCDecay < 0.99 || s.AGCDecay > 0.99999 {
		errs = append(errs, fmt.Errorf("agc_decay must be between 0.99 and 0.99999, got %v", s.AGCDecay))
	}
	if s.AGCAttack < 0.0 || s.AGCAttack > 1.0 {
		errs = append(errs, fmt.Errorf("agc_attack must be between 0.0 and 1.0, got %v", s.AGCAttack))
	}

	// Nyquist check: tone frequency must be less than half the sample rate
	if s.ToneFrequency >= s.SampleRate/2 {
		errs = append(errs, fmt.Errorf("tone_frequency (%v Hz) must be less than Nyquist frequency (%v Hz)", s.ToneFrequency, s.SampleRate/2))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
