package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func resetViper() {
	viper.Reset()
}

// writeXDGConfig writes content as the config file under a temp HOME.
func writeXDGConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	configDir := filepath.Join(tmpDir, ".config", AppName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return tmpDir
}

func TestInit_WithDefaults(t *testing.T) {
	resetViper()
	writeXDGConfig(t, DefaultConfig)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ints := []struct {
		key      string
		expected int
	}{
		{"wpm", 10},
		{"fields", 2},
		{"field_width", 40},
		{"device_index", -1},
		{"buffer_size", 512},
		{"block_size", 256},
		{"overlap_pct", 50},
		{"hysteresis", 3},
	}
	for _, tt := range ints {
		t.Run(tt.key, func(t *testing.T) {
			if got := viper.GetInt(tt.key); got != tt.expected {
				t.Errorf("viper.GetInt(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}

	floats := []struct {
		key      string
		expected float64
	}{
		{"sidetone_frequency", 600},
		{"sidetone_volume", -1},
		{"sample_rate", 48000},
		{"tone_frequency", 600},
		{"threshold", 0.4},
		{"agc_decay", 0.9995},
		{"agc_attack", 0.1},
	}
	for _, tt := range floats {
		t.Run(tt.key, func(t *testing.T) {
			if got := viper.GetFloat64(tt.key); got != tt.expected {
				t.Errorf("viper.GetFloat64(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}

	if viper.GetBool("sidetone") || viper.GetBool("audio_input") || viper.GetBool("debug") {
		t.Error("sidetone, audio_input and debug should default to false")
	}
	if !viper.GetBool("agc_enabled") {
		t.Error("agc_enabled should default to true")
	}
}

func TestInit_CreatesConfigIfMissing(t *testing.T) {
	resetViper()

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	configPath := filepath.Join(tmpDir, ".config", AppName, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Errorf("Init() did not create config file at %s", configPath)
	}
}

func TestInit_ReadsLocalConfigFirst(t *testing.T) {
	resetViper()
	tmpDir := writeXDGConfig(t, "wpm: 20")

	origDir, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Logf("failed to restore dir: %v", err)
		}
	}()

	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("wpm: 25"), 0644); err != nil {
		t.Fatalf("failed to write local config: %v", err)
	}

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if got := viper.GetInt("wpm"); got != 25 {
		t.Errorf("viper.GetInt(wpm) = %d, want 25 (local config)", got)
	}
}

func TestInit_DotConfigTakesPrecedence(t *testing.T) {
	resetViper()
	tmpDir := writeXDGConfig(t, "wpm: 20")

	configDir := filepath.Join(tmpDir, ".config", AppName)
	if err := os.WriteFile(filepath.Join(configDir, ".config.yaml"), []byte("wpm: 30"), 0644); err != nil {
		t.Fatalf("failed to write .config.yaml: %v", err)
	}

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if got := viper.GetInt("wpm"); got != 30 {
		t.Errorf("viper.GetInt(wpm) = %d, want 30 (.config.yaml)", got)
	}
}

func TestInit_InvalidConfigFile(t *testing.T) {
	resetViper()
	writeXDGConfig(t, "wpm: [unterminated")

	err := Init()
	if err == nil {
		t.Fatal("Init() expected error for malformed YAML, got nil")
	}
	if !strings.Contains(err.Error(), "read config") {
		t.Errorf("Init() error = %v, want read config error", err)
	}
}

func TestGet_ReturnsSettings(t *testing.T) {
	resetViper()
	writeXDGConfig(t, DefaultConfig)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	settings, err := Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if settings.WPM != 10 {
		t.Errorf("Settings.WPM = %d, want 10", settings.WPM)
	}
	if settings.Fields != 2 {
		t.Errorf("Settings.Fields = %d, want 2", settings.Fields)
	}
	if settings.SidetoneVolume != -1 {
		t.Errorf("Settings.SidetoneVolume = %v, want -1", settings.SidetoneVolume)
	}
	if settings.AudioInput {
		t.Error("Settings.AudioInput = true, want false")
	}
	if settings.RecordFile != "" || settings.LogFile != "" {
		t.Errorf("record_file/log_file = %q/%q, want empty", settings.RecordFile, settings.LogFile)
	}
}

func TestGet_AllFields(t *testing.T) {
	resetViper()

	customConfig := `wpm: 25
fields: 4
field_width: 60
sidetone: true
sidetone_frequency: 700
sidetone_volume: -3
audio_input: true
device_index: 2
sample_rate: 96000
buffer_size: 1024
tone_frequency: 750
block_size: 512
overlap_pct: 75
threshold: 0.6
hysteresis: 10
agc_enabled: false
agc_decay: 0.999
agc_attack: 0.2
record_file: /tmp/keys.jsonl
log_file: /tmp/cwkeyer.log
debug: true
`
	writeXDGConfig(t, customConfig)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	settings, err := Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	want := Settings{
		WPM:               25,
		Fields:            4,
		FieldWidth:        60,
		Sidetone:          true,
		SidetoneFrequency: 700,
		SidetoneVolume:    -3,
		AudioInput:        true,
		DeviceIndex:       2,
		SampleRate:        96000,
		BufferSize:        1024,
		ToneFrequency:     750,
		BlockSize:         512,
		OverlapPct:        75,
		Threshold:         0.6,
		Hysteresis:        10,
		AGCEnabled:        false,
		AGCDecay:          0.999,
		AGCAttack:         0.2,
		RecordFile:        "/tmp/keys.jsonl",
		LogFile:           "/tmp/cwkeyer.log",
		Debug:             true,
	}
	if *settings != want {
		t.Errorf("Get() = %+v, want %+v", *settings, want)
	}
}

func TestGet_InvalidSettings(t *testing.T) {
	resetViper()
	writeXDGConfig(t, "wpm: 100")

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	_, err := Get()
	if err == nil {
		t.Fatal("Get() expected error for wpm out of range")
	}
	if !strings.Contains(err.Error(), "invalid config") || !strings.Contains(err.Error(), "wpm") {
		t.Errorf("Get() error = %v, want invalid config mentioning wpm", err)
	}
}

func TestEnsureConfigExists_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config")

	if err := ensureConfigExists(configPath); err != nil {
		t.Fatalf("ensureConfigExists() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(configPath, "config.yaml"))
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if string(content) != DefaultConfig {
		t.Errorf("config content does not match DefaultConfig")
	}
}

func TestEnsureConfigExists_DoesNotOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")
	existingContent := "existing: true"
	if err := os.WriteFile(configFile, []byte(existingContent), 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	if err := ensureConfigExists(tmpDir); err != nil {
		t.Fatalf("ensureConfigExists() error = %v", err)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if string(content) != existingContent {
		t.Errorf("ensureConfigExists() overwrote existing config")
	}
}

func TestConstants(t *testing.T) {
	if AppName != "cwkeyer" {
		t.Errorf("AppName = %q, want %q", AppName, "cwkeyer")
	}
	if ConfigType != "yaml" {
		t.Errorf("ConfigType = %q, want %q", ConfigType, "yaml")
	}
}

func TestDefaultConfig_ContainsExpectedKeys(t *testing.T) {
	expectedKeys := []string{
		"wpm", "fields", "field_width",
		"sidetone", "sidetone_frequency", "sidetone_volume",
		"audio_input", "device_index", "sample_rate", "buffer_size",
		"tone_frequency", "block_size", "overlap_pct", "threshold",
		"hysteresis", "agc_enabled", "agc_decay", "agc_attack",
		"record_file", "log_file", "debug",
	}

	for _, key := range expectedKeys {
		if !strings.Contains(DefaultConfig, key+":") {
			t.Errorf("DefaultConfig missing key: %s", key)
		}
	}
}

func validSettings() *Settings {
	return &Settings{
		WPM:               10,
		Fields:            2,
		FieldWidth:        40,
		SidetoneFrequency: 600,
		SidetoneVolume:    -1,
		DeviceIndex:       -1,
		SampleRate:        48000,
		BufferSize:        512,
		ToneFrequency:     600,
		BlockSize:         256,
		OverlapPct:        50,
		Threshold:         0.4,
		Hysteresis:        3,
		AGCEnabled:        true,
		AGCDecay:          0.9995,
		AGCAttack:         0.1,
	}
}

func TestSettings_Validate_ValidSettings(t *testing.T) {
	if err := validSettings().Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestSettings_Validate_Ranges(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"wpm too low", func(s *Settings) { s.WPM = 4 }, "wpm"},
		{"wpm too high", func(s *Settings) { s.WPM = 61 }, "wpm"},
		{"no fields", func(s *Settings) { s.Fields = 0 }, "fields"},
		{"too many fields", func(s *Settings) { s.Fields = 9 }, "fields"},
		{"narrow field", func(s *Settings) { s.FieldWidth = 9 }, "field_width"},
		{"sidetone pitch", func(s *Settings) { s.SidetoneFrequency = 50 }, "sidetone_frequency"},
		{"sidetone too loud", func(s *Settings) { s.SidetoneVolume = 1 }, "sidetone_volume"},
		{"sample rate", func(s *Settings) { s.SampleRate = 1000000 }, "sample_rate"},
		{"buffer size range", func(s *Settings) { s.BufferSize = 32 }, "buffer_size"},
		{"buffer size power of 2", func(s *Settings) { s.BufferSize = 500 }, "power of 2"},
		{"tone frequency", func(s *Settings) { s.ToneFrequency = 5000 }, "tone_frequency"},
		{"block size power of 2", func(s *Settings) { s.BlockSize = 300 }, "block_size"},
		{"overlap", func(s *Settings) { s.OverlapPct = 100 }, "overlap_pct"},
		{"threshold", func(s *Settings) { s.Threshold = 2.0 }, "threshold"},
		{"hysteresis", func(s *Settings) { s.Hysteresis = 0 }, "hysteresis"},
		{"agc decay", func(s *Settings) { s.AGCDecay = 0.5 }, "agc_decay"},
		{"agc attack", func(s *Settings) { s.AGCAttack = -0.1 }, "agc_attack"},
		{"nyquist", func(s *Settings) { s.SampleRate = 8000; s.ToneFrequency = 2000 }, "Nyquist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			err := s.Validate()
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Validate_MultipleErrors(t *testing.T) {
	s := validSettings()
	s.WPM = 0
	s.Fields = 0
	s.Threshold = -1

	err := s.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"wpm", "fields", "threshold"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %q: %v", want, err)
		}
	}
}
