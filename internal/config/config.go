// Package config loads animalsay settings from defaults, an optional YAML
// file, ANIMALSAY_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hammamikhairi/animalsay/internal/logger"
)

// EnvPrefix is prepended to every environment override, e.g.
// ANIMALSAY_SPEECH_VOICE.
const EnvPrefix = "ANIMALSAY"

// Config holds all configuration options for animalsay.
type Config struct {
	SoundsDir  string   `mapstructure:"sounds_dir"`
	Extensions []string `mapstructure:"extensions"`
	LocaleDir  string   `mapstructure:"locale_dir"` // optional overrides on disk
	Lang       string   `mapstructure:"lang"`
	LogLevel   string   `mapstructure:"log_level"`
	LogFile    string   `mapstructure:"log_file"`

	Speech SpeechConfig `mapstructure:"speech"`
	Voice  VoiceConfig  `mapstructure:"voice"`
	AI     AIConfig     `mapstructure:"ai"`
	UI     UIConfig     `mapstructure:"ui"`
}

// AIConfig controls the chat-model fallback for utterances no template
// matches. It also needs GPT_CHAT_KEY and GPT_CHAT_ENDPOINT.
type AIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// SpeechConfig controls text-to-speech output.
type SpeechConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Voice      string `mapstructure:"voice"`
	SampleRate int    `mapstructure:"sample_rate"`
	CacheDir   string `mapstructure:"cache_dir"`
	DiskCache  bool   `mapstructure:"disk_cache"`
}

// VoiceConfig controls Whisper voice input.
type VoiceConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	WhisperBin   string   `mapstructure:"whisper_bin"`
	WhisperModel string   `mapstructure:"whisper_model"`
	WakeWords    []string `mapstructure:"wake_words"`
	RecordSecs   int      `mapstructure:"record_secs"`

	// Wake holds the optional ONNX wake-word models. When WakeModel is
	// empty, wake words are spotted in Whisper transcripts instead.
	Wake WakeConfig `mapstructure:"wake"`
}

// WakeConfig points at the openWakeWord model files.
type WakeConfig struct {
	Model     string  `mapstructure:"model"`
	Melspec   string  `mapstructure:"melspec"`
	Embedding string  `mapstructure:"embedding"`
	OnnxLib   string  `mapstructure:"onnx_lib"`
	Threshold float64 `mapstructure:"threshold"`
}

// UIConfig holds terminal UI options.
type UIConfig struct {
	Fancy bool `mapstructure:"fancy"` // bubbletea prompt with status bar
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		SoundsDir:  "sounds",
		Extensions: []string{"wav", "mp3"},
		Lang:       "en-us",
		LogLevel:   "normal",
		LogFile:    ".animalsay/animalsay.log",
		Speech: SpeechConfig{
			Enabled:    true,
			Voice:      "en-US-AvaNeural",
			SampleRate: 24000,
			CacheDir:   ".animalsay/tts-cache",
			DiskCache:  true,
		},
		Voice: VoiceConfig{
			WhisperBin:   "whisper-cli",
			WhisperModel: "bin/ggml-small.bin",
			RecordSecs:   2,
			Wake: WakeConfig{
				Melspec:   "bin/melspectrogram.onnx",
				Embedding: "bin/embedding_model.onnx",
				Threshold: 0.3,
			},
		},
		AI: AIConfig{Enabled: true},
		UI: UIConfig{Fancy: true},
	}
}

// FlagKeys maps command-line flag names to config keys.
var FlagKeys = map[string]string{
	"sounds-dir": "sounds_dir",
	"locale-dir": "locale_dir",
	"lang":       "lang",
	"log-file":   "log_file",
	"voice":      "voice.enabled",
}

// Loader reads configuration. The zero value is not usable; call NewLoader.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment overrides set.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlags binds every flag named in FlagKeys that exists in fs.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	for name, key := range FlagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the config file and returns the merged configuration. An
// empty path searches for animalsay.yaml in . and ./config; a missing file
// is not an error in that case.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
	} else {
		l.v.SetConfigName("animalsay")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("./config")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Used returns the config file that was read, if any.
func (l *Loader) Used() string { return l.v.ConfigFileUsed() }

// Validate checks values viper cannot check by type.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SoundsDir) == "" {
		return errors.New("config: sounds_dir must not be empty")
	}
	if len(c.Extensions) == 0 {
		return errors.New("config: at least one sound extension is required")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Speech.SampleRate <= 0 {
		return fmt.Errorf("config: speech.sample_rate must be positive, got %d", c.Speech.SampleRate)
	}
	if c.Voice.RecordSecs <= 0 {
		return fmt.Errorf("config: voice.record_secs must be positive, got %d", c.Voice.RecordSecs)
	}
	return nil
}

// setDefaults registers every field of d so AutomaticEnv can see the keys.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("sounds_dir", d.SoundsDir)
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("locale_dir", d.LocaleDir)
	v.SetDefault("lang", d.Lang)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)

	v.SetDefault("speech.enabled", d.Speech.Enabled)
	v.SetDefault("speech.voice", d.Speech.Voice)
	v.SetDefault("speech.sample_rate", d.Speech.SampleRate)
	v.SetDefault("speech.cache_dir", d.Speech.CacheDir)
	v.SetDefault("speech.disk_cache", d.Speech.DiskCache)

	v.SetDefault("voice.enabled", d.Voice.Enabled)
	v.SetDefault("voice.whisper_bin", d.Voice.WhisperBin)
	v.SetDefault("voice.whisper_model", d.Voice.WhisperModel)
	v.SetDefault("voice.wake_words", d.Voice.WakeWords)
	v.SetDefault("voice.record_secs", d.Voice.RecordSecs)
	v.SetDefault("voice.wake.model", d.Voice.Wake.Model)
	v.SetDefault("voice.wake.melspec", d.Voice.Wake.Melspec)
	v.SetDefault("voice.wake.embedding", d.Voice.Wake.Embedding)
	v.SetDefault("voice.wake.onnx_lib", d.Voice.Wake.OnnxLib)
	v.SetDefault("voice.wake.threshold", d.Voice.Wake.Threshold)

	v.SetDefault("ai.enabled", d.AI.Enabled)
	v.SetDefault("ai.model", d.AI.Model)

	v.SetDefault("ui.fancy", d.UI.Fancy)
}
